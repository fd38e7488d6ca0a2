package sniffer

import (
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Role is the semantic meaning of a column.
type Role string

const (
	RoleDate            Role = "date"
	RoleDescription     Role = "description"
	RoleDebit           Role = "debit"
	RoleCredit          Role = "credit"
	RoleDebitSecondary  Role = "debit_secondary"
	RoleCreditSecondary Role = "credit_secondary"
	RoleCategory        Role = "category"
	RoleAccount         Role = "account"
	RoleContact         Role = "contact"
	RoleOffice          Role = "office"
	RoleClass           Role = "class"
	RoleOpportunity     Role = "opportunity"
	RoleStage           Role = "stage"
	RoleValue           Role = "value"
	RoleProbability     Role = "probability"
)

// DefaultSecondaryCurrency is the currency code that marks secondary debit/credit columns.
const DefaultSecondaryCurrency = "sgd"

// secondaryToken is replaced by the configured secondary currency code when
// rules are compiled.
const secondaryToken = "$secondary"

// Rule matches a header to a role. A header satisfies the rule when its
// lowercase form contains at least one AnyOf keyword, every AllOf keyword and
// no NoneOf keyword.
type Rule struct {
	Role   Role
	AnyOf  []string
	AllOf  []string
	NoneOf []string
}

// DefaultRules is the ordered role table. New column synonyms are added here.
var DefaultRules = []Rule{
	{Role: RoleDate, AnyOf: []string{"date"}},
	{Role: RoleDescription, AnyOf: []string{"description", "particulars", "details", "narrative"}},
	{Role: RoleDebit, AnyOf: []string{"debit"}, NoneOf: []string{secondaryToken}},
	{Role: RoleCredit, AnyOf: []string{"credit"}, NoneOf: []string{secondaryToken}},
	{Role: RoleDebitSecondary, AnyOf: []string{"debit"}, AllOf: []string{secondaryToken}},
	{Role: RoleCreditSecondary, AnyOf: []string{"credit"}, AllOf: []string{secondaryToken}},
	{Role: RoleCategory, AnyOf: []string{"category"}},
	{Role: RoleAccount, AnyOf: []string{"account"}},
	{Role: RoleContact, AnyOf: []string{"contact", "payee", "vendor", "customer"}},
	{Role: RoleOffice, AnyOf: []string{"office", "branch", "location"}},
	{Role: RoleClass, AnyOf: []string{"class", "tracking"}, NoneOf: []string{"classification"}},
	{Role: RoleOpportunity, AnyOf: []string{"opportunity", "deal", "name"}, NoneOf: []string{"account", "contact", "stage"}},
	{Role: RoleStage, AnyOf: []string{"stage", "status"}},
	{Role: RoleValue, AnyOf: []string{"value", "amount"}, NoneOf: []string{"weighted"}},
	{Role: RoleProbability, AnyOf: []string{"probability", "likelihood", "prob", "%"}},
}

// Schema is the resolved column name per role for one batch. Empty strings
// mean no header matched.
type Schema struct {
	Date            string `json:"date,omitempty"`
	Description     string `json:"description,omitempty"`
	Debit           string `json:"debit,omitempty"`
	Credit          string `json:"credit,omitempty"`
	DebitSecondary  string `json:"debitSecondary,omitempty"`
	CreditSecondary string `json:"creditSecondary,omitempty"`
	Category        string `json:"category,omitempty"`
	Account         string `json:"account,omitempty"`
	Contact         string `json:"contact,omitempty"`
	Office          string `json:"office,omitempty"`
	Class           string `json:"class,omitempty"`
	Opportunity     string `json:"opportunity,omitempty"`
	Stage           string `json:"stage,omitempty"`
	Value           string `json:"value,omitempty"`
	Probability     string `json:"probability,omitempty"`
}

// CategoryFallback returns the category column, or the account column when no
// category column exists.
func (s Schema) CategoryFallback() string {
	if s.Category != "" {
		return s.Category
	}
	return s.Account
}

// Column returns the header resolved for role.
func (s Schema) Column(role Role) string {
	switch role {
	case RoleDate:
		return s.Date
	case RoleDescription:
		return s.Description
	case RoleDebit:
		return s.Debit
	case RoleCredit:
		return s.Credit
	case RoleDebitSecondary:
		return s.DebitSecondary
	case RoleCreditSecondary:
		return s.CreditSecondary
	case RoleCategory:
		return s.Category
	case RoleAccount:
		return s.Account
	case RoleContact:
		return s.Contact
	case RoleOffice:
		return s.Office
	case RoleClass:
		return s.Class
	case RoleOpportunity:
		return s.Opportunity
	case RoleStage:
		return s.Stage
	case RoleValue:
		return s.Value
	case RoleProbability:
		return s.Probability
	default:
		return ""
	}
}

func (s *Schema) set(role Role, header string) {
	switch role {
	case RoleDate:
		s.Date = header
	case RoleDescription:
		s.Description = header
	case RoleDebit:
		s.Debit = header
	case RoleCredit:
		s.Credit = header
	case RoleDebitSecondary:
		s.DebitSecondary = header
	case RoleCreditSecondary:
		s.CreditSecondary = header
	case RoleCategory:
		s.Category = header
	case RoleAccount:
		s.Account = header
	case RoleContact:
		s.Contact = header
	case RoleOffice:
		s.Office = header
	case RoleClass:
		s.Class = header
	case RoleOpportunity:
		s.Opportunity = header
	case RoleStage:
		s.Stage = header
	case RoleValue:
		s.Value = header
	case RoleProbability:
		s.Probability = header
	}
}

// SchemaInferenceError reports a required role with no matching header.
type SchemaInferenceError struct {
	Role Role
}

func (e *SchemaInferenceError) Error() string {
	return fmt.Sprintf("schema inference failed: no column found for %s", e.Role)
}

// compiledRule holds keyword indices into the shared matcher dictionary.
type compiledRule struct {
	role   Role
	anyOf  []int
	allOf  []int
	noneOf []int
}

// Inferencer resolves header roles with a single Aho-Corasick pass per header.
// It is immutable after construction and safe for concurrent use.
type Inferencer struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	rules    []compiledRule
}

// NewInferencer compiles rules, substituting secondaryCurrency for the
// secondary currency placeholder. An empty code uses DefaultSecondaryCurrency.
func NewInferencer(rules []Rule, secondaryCurrency string) *Inferencer {
	code := strings.ToLower(strings.TrimSpace(secondaryCurrency))
	if code == "" {
		code = DefaultSecondaryCurrency
	}

	inf := &Inferencer{}
	index := make(map[string]int)
	lookup := func(words []string) []int {
		ids := make([]int, 0, len(words))
		for _, w := range words {
			w = strings.ToLower(w)
			if w == secondaryToken {
				w = code
			}
			id, ok := index[w]
			if !ok {
				id = len(inf.keywords)
				index[w] = id
				inf.keywords = append(inf.keywords, w)
			}
			ids = append(ids, id)
		}
		return ids
	}

	for _, r := range rules {
		inf.rules = append(inf.rules, compiledRule{
			role:   r.Role,
			anyOf:  lookup(r.AnyOf),
			allOf:  lookup(r.AllOf),
			noneOf: lookup(r.NoneOf),
		})
	}

	inf.matcher = ahocorasick.NewStringMatcher(inf.keywords)
	return inf
}

// DefaultInferencer uses DefaultRules and the default secondary currency.
func DefaultInferencer() *Inferencer {
	return NewInferencer(DefaultRules, DefaultSecondaryCurrency)
}

// Infer resolves every role it can. For each role the first header in
// original order that satisfies the rule wins.
func (inf *Inferencer) Infer(headers []string) Schema {
	var schema Schema
	resolved := make(map[Role]bool, len(inf.rules))

	for _, header := range headers {
		present := inf.keywordsIn(header)
		for _, rule := range inf.rules {
			if resolved[rule.role] || !rule.matches(present) {
				continue
			}
			schema.set(rule.role, header)
			resolved[rule.role] = true
		}
	}
	return schema
}

// InferTransactionSchema resolves a bank-transaction schema. Date,
// description, debit and credit are required; secondary batches also require
// the secondary debit/credit pair.
func (inf *Inferencer) InferTransactionSchema(headers []string, secondary bool) (Schema, error) {
	schema := inf.Infer(headers)

	required := []Role{RoleDate, RoleDescription, RoleDebit, RoleCredit}
	if secondary {
		required = append(required, RoleDebitSecondary, RoleCreditSecondary)
	}
	for _, role := range required {
		if schema.Column(role) == "" {
			return schema, &SchemaInferenceError{Role: role}
		}
	}
	return schema, nil
}

// FirstMatch returns the first header containing any of keywords, case-insensitively.
func FirstMatch(headers []string, keywords []string) (string, bool) {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	m := ahocorasick.NewStringMatcher(lowered)
	for _, h := range headers {
		if len(m.MatchThreadSafe([]byte(strings.ToLower(h)))) > 0 {
			return h, true
		}
	}
	return "", false
}

func (inf *Inferencer) keywordsIn(header string) map[int]bool {
	hits := inf.matcher.MatchThreadSafe([]byte(strings.ToLower(strings.TrimSpace(header))))
	present := make(map[int]bool, len(hits))
	for _, id := range hits {
		present[id] = true
	}
	return present
}

func (r compiledRule) matches(present map[int]bool) bool {
	anyHit := false
	for _, id := range r.anyOf {
		if present[id] {
			anyHit = true
			break
		}
	}
	if !anyHit {
		return false
	}
	for _, id := range r.allOf {
		if !present[id] {
			return false
		}
	}
	for _, id := range r.noneOf {
		if present[id] {
			return false
		}
	}
	return true
}
