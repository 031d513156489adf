package seeder

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValueSource draws synthetic values by provider name ("group.name"). A
// unique draw never returns a value previously drawn for that provider by
// the same source.
type ValueSource interface {
	Draw(provider string, unique bool) (interface{}, error)
}

// maxUniqueDraws bounds the attempts a unique draw makes before giving up.
const maxUniqueDraws = 10000

type providerFunc func(f *Faker) interface{}

var catalog = map[string]map[string]providerFunc{
	"address": {
		"streetAddress": (*Faker).streetAddress,
		"city":          func(f *Faker) interface{} { return f.pick(cities) },
		"state":         func(f *Faker) interface{} { return f.pick(states) },
		"postcode":      func(f *Faker) interface{} { return fmt.Sprintf("%05d", f.rand.Intn(100000)) },
		"country":       func(f *Faker) interface{} { return f.pick(countries) },
	},
	"person": {
		"name":      func(f *Faker) interface{} { return f.pick(firstNames) + " " + f.pick(lastNames) },
		"firstName": func(f *Faker) interface{} { return f.pick(firstNames) },
		"lastName":  func(f *Faker) interface{} { return f.pick(lastNames) },
		"title":     func(f *Faker) interface{} { return f.pick(titles) },
	},
	"company": {
		"company":     (*Faker).company,
		"catchPhrase": (*Faker).catchPhrase,
		"bs":          (*Faker).bs,
	},
	"internet": {
		"email":      (*Faker).email,
		"userName":   func(f *Faker) interface{} { return f.userName() },
		"password":   (*Faker).password,
		"domainName": func(f *Faker) interface{} { return f.domainName() },
		"url":        (*Faker).url,
	},
	"datetime": {
		"date":       func(f *Faker) interface{} { return f.moment(epoch, horizon).Format(dateLayout) },
		"time":       func(f *Faker) interface{} { return f.moment(epoch, horizon).Format(timeLayout) },
		"dateTime":   func(f *Faker) interface{} { return f.moment(epoch, horizon).Format(dateTimeLayout) },
		"dateTimeAD": func(f *Faker) interface{} { return f.moment(anno, horizon).Format(dateTimeLayout) },
		"iso8601":    func(f *Faker) interface{} { return f.moment(epoch, horizon).Format("2006-01-02T15:04:05-0700") },
	},
	"text": {
		"word":      func(f *Faker) interface{} { return f.pick(words) },
		"sentence":  func(f *Faker) interface{} { return f.sentence() },
		"paragraph": (*Faker).paragraph,
	},
	"misc": {
		"uuid":         func(f *Faker) interface{} { return f.uuid() },
		"boolean":      func(f *Faker) interface{} { return f.rand.Intn(2) == 1 },
		"randomNumber": func(f *Faker) interface{} { return f.rand.Int63n(1000000000) },
		"phoneNumber":  (*Faker).phoneNumber,
	},
}

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Fixed bounds keep seeded output independent of the wall clock.
var (
	anno    = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	epoch   = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	horizon = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Providers returns every provider name in the catalog, sorted.
func Providers() []string {
	var names []string
	for group, providers := range catalog {
		for name := range providers {
			names = append(names, group+"."+name)
		}
	}
	sort.Strings(names)
	return names
}

// IsProvider reports whether name is a "group.name" entry of the catalog.
func IsProvider(name string) bool {
	_, ok := lookupProvider(name)
	return ok
}

func lookupProvider(name string) (providerFunc, bool) {
	group, provider, ok := strings.Cut(name, ".")
	if !ok {
		return nil, false
	}
	fn, ok := catalog[group][provider]
	return fn, ok
}

// Faker is the catalog-backed ValueSource. All of its randomness comes from
// the *rand.Rand it is built with.
type Faker struct {
	rand  *rand.Rand
	drawn map[string]map[interface{}]bool
}

func NewFaker(r *rand.Rand) *Faker {
	return &Faker{
		rand:  r,
		drawn: make(map[string]map[interface{}]bool),
	}
}

func (f *Faker) Draw(provider string, unique bool) (interface{}, error) {
	fn, ok := lookupProvider(provider)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	if !unique {
		return fn(f), nil
	}

	seen := f.drawn[provider]
	if seen == nil {
		seen = make(map[interface{}]bool)
		f.drawn[provider] = seen
	}
	for i := 0; i < maxUniqueDraws; i++ {
		v := fn(f)
		if !seen[v] {
			seen[v] = true
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: provider %s produced no new value after %d draws", ErrUniqueExhausted, provider, maxUniqueDraws)
}

func (f *Faker) pick(list []string) string {
	return list[f.rand.Intn(len(list))]
}

func (f *Faker) moment(from, to time.Time) time.Time {
	span := to.Unix() - from.Unix()
	return time.Unix(from.Unix()+f.rand.Int63n(span), 0).UTC()
}

func (f *Faker) uuid() string {
	id, err := uuid.NewRandomFromReader(f.rand)
	if err != nil {
		// math/rand never fails to read
		panic(err)
	}
	return id.String()
}

func (f *Faker) streetAddress() interface{} {
	return fmt.Sprintf("%d %s %s", f.rand.Intn(9999)+1, f.pick(lastNames), f.pick(streetSuffixes))
}

func (f *Faker) company() interface{} {
	switch f.rand.Intn(3) {
	case 0:
		return f.pick(lastNames) + "-" + f.pick(lastNames)
	case 1:
		return fmt.Sprintf("%s, %s and %s", f.pick(lastNames), f.pick(lastNames), f.pick(lastNames))
	}
	return f.pick(lastNames) + " " + f.pick(companySuffixes)
}

func (f *Faker) catchPhrase() interface{} {
	return fmt.Sprintf("%s %s %s", f.pick(catchAdjectives), f.pick(catchDescriptors), f.pick(catchNouns))
}

func (f *Faker) bs() interface{} {
	return fmt.Sprintf("%s %s %s", f.pick(bsVerbs), f.pick(bsAdjectives), f.pick(bsNouns))
}

func (f *Faker) userName() string {
	first := strings.ToLower(f.pick(firstNames))
	last := strings.ToLower(f.pick(lastNames))
	switch f.rand.Intn(3) {
	case 0:
		return first + "." + last
	case 1:
		return fmt.Sprintf("%s%d", first, f.rand.Intn(1000))
	}
	return first[:1] + last
}

func (f *Faker) domainName() string {
	return strings.ToLower(f.pick(lastNames)) + "." + f.pick(topLevelDomains)
}

func (f *Faker) email() interface{} {
	return fmt.Sprintf("%s@%s", f.userName(), f.pick(freeEmailDomains))
}

func (f *Faker) url() interface{} {
	if f.rand.Intn(2) == 0 {
		return "https://www." + f.domainName() + "/"
	}
	return fmt.Sprintf("https://%s/%s/%s", f.domainName(), f.pick(words), f.pick(words))
}

const passwordChars = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#%&*"

func (f *Faker) password() interface{} {
	n := 8 + f.rand.Intn(9)
	b := make([]byte, n)
	for i := range b {
		b[i] = passwordChars[f.rand.Intn(len(passwordChars))]
	}
	return string(b)
}

func (f *Faker) sentence() string {
	n := 4 + f.rand.Intn(7)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = f.pick(words)
	}
	parts[0] = strings.ToUpper(parts[0][:1]) + parts[0][1:]
	return strings.Join(parts, " ") + "."
}

func (f *Faker) paragraph() interface{} {
	n := 3 + f.rand.Intn(3)
	sentences := make([]string, n)
	for i := range sentences {
		sentences[i] = f.sentence()
	}
	return strings.Join(sentences, " ")
}

func (f *Faker) phoneNumber() interface{} {
	return fmt.Sprintf("+1-%03d-%03d-%04d", 200+f.rand.Intn(800), f.rand.Intn(1000), f.rand.Intn(10000))
}

var (
	firstNames = []string{
		"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry",
		"Isabel", "Jack", "Karen", "Liam", "Maria", "Noah", "Olivia", "Peter", "Quinn", "Rosa",
		"Samuel", "Tara", "Umar", "Vera", "Walter", "Xenia", "Yusuf", "Zoe", "Amir", "Beatrice",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Hernandez", "Lopez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee",
		"Perez", "Thompson", "White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker",
	}
	titles = []string{"Mr.", "Mrs.", "Ms.", "Miss", "Dr.", "Prof."}

	cities = []string{
		"Springfield", "Riverside", "Franklin", "Greenville", "Bristol", "Clinton", "Fairview", "Salem",
		"Madison", "Georgetown", "Arlington", "Ashland", "Dover", "Oxford", "Jackson", "Burlington",
		"Manchester", "Milton", "Newport", "Auburn", "Dayton", "Lexington", "Milford", "Winchester",
	}
	states = []string{
		"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado", "Connecticut", "Delaware",
		"Florida", "Georgia", "Hawaii", "Idaho", "Illinois", "Indiana", "Iowa", "Kansas", "Kentucky",
		"Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
		"Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey", "New Mexico",
		"New York", "North Carolina", "North Dakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania",
		"Rhode Island", "South Carolina", "South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
		"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
	}
	countries = []string{
		"Argentina", "Australia", "Austria", "Belgium", "Brazil", "Canada", "Chile", "Denmark",
		"Egypt", "Finland", "France", "Germany", "Greece", "India", "Indonesia", "Ireland", "Italy",
		"Japan", "Kenya", "Mexico", "Netherlands", "New Zealand", "Nigeria", "Norway", "Peru",
		"Poland", "Portugal", "South Africa", "Spain", "Sweden", "Switzerland", "Turkey",
		"United Kingdom", "United States", "Vietnam",
	}
	streetSuffixes = []string{"Street", "Avenue", "Road", "Lane", "Drive", "Court", "Place", "Way", "Boulevard"}

	companySuffixes  = []string{"Inc", "LLC", "Ltd", "Group", "PLC"}
	catchAdjectives  = []string{"Adaptive", "Balanced", "Customizable", "Distributed", "Enhanced", "Focused", "Integrated", "Managed", "Open-source", "Robust"}
	catchDescriptors = []string{"24/7", "asynchronous", "bottom-line", "client-driven", "dynamic", "global", "modular", "real-time", "scalable", "zero-defect"}
	catchNouns       = []string{"ability", "architecture", "database", "framework", "hierarchy", "middleware", "paradigm", "portal", "solution", "workforce"}
	bsVerbs          = []string{"aggregate", "deliver", "disintermediate", "embrace", "enable", "harness", "leverage", "optimize", "scale", "synergize"}
	bsAdjectives     = []string{"B2B", "bleeding-edge", "cross-platform", "efficient", "frictionless", "granular", "next-generation", "seamless", "turn-key", "viral"}
	bsNouns          = []string{"channels", "communities", "deliverables", "experiences", "infrastructures", "markets", "metrics", "platforms", "synergies", "web services"}

	topLevelDomains  = []string{"com", "net", "org", "io", "info", "biz"}
	freeEmailDomains = []string{"example.com", "example.net", "example.org", "test.com", "mail.com"}

	words = []string{
		"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "iota", "kappa",
		"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit", "sed", "do",
		"eiusmod", "tempor", "incididunt", "labore", "dolore", "magna", "aliqua", "enim", "minim", "veniam",
		"quis", "nostrud", "exercitation", "ullamco", "laboris", "nisi", "aliquip", "commodo", "consequat", "aute",
		"irure", "reprehenderit", "voluptate", "velit", "esse", "cillum", "fugiat", "nulla", "pariatur", "excepteur",
	}
)
