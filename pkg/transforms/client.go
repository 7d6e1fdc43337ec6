package transforms

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rules document of the form:
//
//	rules:
//	  - name: downtown terminal
//	    when: lower(name) == "downtown term"
//	    set:
//	      Name: Downtown Terminal
func LoadRules(reader io.Reader) ([]Rule, error) {
	var file rulesFile
	if err := yaml.NewDecoder(reader).Decode(&file); err != nil {
		return nil, err
	}

	return file.Rules, nil
}

// LoadEngine compiles the default rules plus those in the given file. An
// empty path means defaults only.
func LoadEngine(path string) (*Engine, error) {
	rules := DefaultRules()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		loaded, err := LoadRules(file)
		if err != nil {
			return nil, err
		}

		rules = append(rules, loaded...)
	}

	return NewEngine(rules)
}

// DefaultRules cover abbreviations that show up in nearly every agency
// export. Agency specific rules layer on top through LoadRules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "downtown terminal",
			When: `lower(name) in ["downtown term", "downtown term.", "dt terminal"]`,
			Set:  map[string]interface{}{"Name": "Downtown Terminal"},
		},
		{
			Name: "transit exchange",
			When: `lower(name) in ["transit exch", "transit exch.", "transit x"]`,
			Set:  map[string]interface{}{"Name": "Transit Exchange"},
		},
		{
			Name: "park and ride",
			When: `lower(name) in ["p+r", "p&r", "park n ride"]`,
			Set:  map[string]interface{}{"Name": "Park & Ride"},
		},
	}
}
