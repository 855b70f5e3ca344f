package rule

// yamlAuthSpec is the intermediate struct for a validation request's
// credential placement.
type yamlAuthSpec struct {
	Type        string `yaml:"type,omitempty"`
	SecretGroup string `yaml:"secret_group,omitempty"`
	HeaderName  string `yaml:"header_name,omitempty"`
	QueryParam  string `yaml:"query_param,omitempty"`
	Username    string `yaml:"username,omitempty"`
	KeyPrefix   string `yaml:"key_prefix,omitempty"`
}

// yamlValidation is the intermediate struct for a rule's HTTP validation probe.
type yamlValidation struct {
	Method          string            `yaml:"method"`
	URL             string            `yaml:"url"`
	Body            string            `yaml:"body,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	Auth            yamlAuthSpec      `yaml:"auth,omitempty"`
	SuccessStatus   []int             `yaml:"success_status,omitempty"`
	FailureStatus   []int             `yaml:"failure_status,omitempty"`
	BodyContainsAny []string          `yaml:"body_contains_any,omitempty"`
}

// yamlRule is the intermediate struct for parsing a rule definition file.
// The shape follows the NoseyParker-style rule format the scanner was
// originally built around, extended with the confidence, entropy,
// visibility, and validation fields this scanner adds on top of it.
type yamlRule struct {
	Name              string          `yaml:"name"`
	ID                string          `yaml:"id"`
	Pattern           string          `yaml:"pattern"`
	Description       string          `yaml:"description,omitempty"`
	Examples          []string        `yaml:"examples,omitempty"`
	NegativeExamples  []string        `yaml:"negative_examples,omitempty"`
	References        []string        `yaml:"references,omitempty"`
	Categories        []string        `yaml:"categories,omitempty"`
	Keywords          []string        `yaml:"keywords,omitempty"`
	Confidence        string          `yaml:"confidence,omitempty"`
	MinEntropy        *float64        `yaml:"min_entropy,omitempty"`
	Visible           *bool           `yaml:"visible,omitempty"`
	ContextRegex      string          `yaml:"context_regex,omitempty"`
	IgnoreOnLineAbove bool            `yaml:"ignore_on_line_above,omitempty"`
	Validation        *yamlValidation `yaml:"validation,omitempty"`
}

// yamlRulesFile represents the top-level structure of a rules YAML file.
type yamlRulesFile struct {
	Rules []yamlRule `yaml:"rules"`
}

// yamlRuleset is the intermediate struct for parsing a ruleset YAML document.
type yamlRuleset struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	RuleIDs     []string `yaml:"include_rule_ids"`
}

// yamlRulesetsFile represents the top-level structure of a rulesets YAML file.
type yamlRulesetsFile struct {
	Rulesets []yamlRuleset `yaml:"rulesets"`
}
