// Package registry holds the static category → segment keyword mapping used
// by rule-mode classification. The mapping is immutable after construction;
// detection patterns are compiled once, so a bad pattern fails at load time
// rather than mid-pipeline.
package registry

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SegmentSpec declares one user segment and its detection patterns.
type SegmentSpec struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// CategorySpec declares one product category, its detection patterns, and
// its candidate user segments.
type CategorySpec struct {
	Name     string        `yaml:"name"`
	Patterns []string      `yaml:"patterns"`
	Segments []SegmentSpec `yaml:"segments"`
}

// Segment is a compiled segment rule.
type Segment struct {
	Name     string
	patterns []*regexp.Regexp
}

// Category is a compiled category rule with its ordered segments.
type Category struct {
	Name     string
	Segments []Segment
	patterns []*regexp.Regexp
}

// Mapping is the compiled, ordered category registry.
type Mapping struct {
	categories []Category
}

// Matches reports whether any of the category's detection patterns match
// the page text.
func (c *Category) Matches(pageText string) bool {
	return anyMatch(c.patterns, pageText)
}

// Matches reports whether any of the segment's keyword patterns match the
// page text.
func (s *Segment) Matches(pageText string) bool {
	return anyMatch(s.patterns, pageText)
}

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Categories returns the registry's categories in declaration order.
func (m *Mapping) Categories() []Category {
	return m.categories
}

// Lookup finds a category by name.
func (m *Mapping) Lookup(name string) (*Category, bool) {
	for i := range m.categories {
		if m.categories[i].Name == name {
			return &m.categories[i], true
		}
	}
	return nil, false
}

// New compiles a registry from specs. Patterns are matched
// case-insensitively against lower-cased page text.
func New(specs []CategorySpec) (*Mapping, error) {
	if len(specs) == 0 {
		return nil, eris.New("registry: no categories defined")
	}

	m := &Mapping{}
	for _, cs := range specs {
		if cs.Name == "" {
			return nil, eris.New("registry: category with empty name")
		}
		cat := Category{Name: cs.Name}

		var err error
		cat.patterns, err = compileAll(cs.Name, cs.Patterns)
		if err != nil {
			return nil, err
		}

		for _, ss := range cs.Segments {
			seg := Segment{Name: ss.Name}
			seg.patterns, err = compileAll(cs.Name+"/"+ss.Name, ss.Patterns)
			if err != nil {
				return nil, err
			}
			cat.Segments = append(cat.Segments, seg)
		}

		m.categories = append(m.categories, cat)
	}
	return m, nil
}

func compileAll(owner string, patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, eris.Errorf("registry: %s has no patterns", owner)
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, eris.Wrapf(err, "registry: compile pattern %q for %s", p, owner)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// LoadFile reads category specs from a YAML file and compiles them.
func LoadFile(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var doc struct {
		Categories []CategorySpec `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}

	return New(doc.Categories)
}

// defaultSpecs is the built-in product category mapping.
var defaultSpecs = []CategorySpec{
	{
		Name:     "服装",
		Patterns: []string{`服装|服饰|衣服|clothing|apparel|wear|上衣|下装|外套|T恤|卫衣`},
		Segments: []SegmentSpec{
			{Name: "男性", Patterns: []string{`男|男士|男性|men`}},
			{Name: "女性", Patterns: []string{`女|女士|女性|women`}},
			{Name: "青少年", Patterns: []string{`青少年|少年|teen|youth`}},
			{Name: "儿童", Patterns: []string{`儿童|小孩|kids|children`}},
			{Name: "运动员", Patterns: []string{`运动员|运动|athlete`}},
			{Name: "时尚达人", Patterns: []string{`时尚|潮流|fashion|trendy`}},
			{Name: "商务人士", Patterns: []string{`商务|正装|business|formal`}},
		},
	},
	{
		Name:     "鞋类",
		Patterns: []string{`鞋|靴|footwear|sneaker|shoes`},
		Segments: []SegmentSpec{
			{Name: "跑步爱好者", Patterns: []string{`跑步|running`}},
			{Name: "篮球爱好者", Patterns: []string{`篮球|basketball`}},
			{Name: "足球爱好者", Patterns: []string{`足球|soccer`}},
			{Name: "健身人士", Patterns: []string{`健身|训练|training`}},
			{Name: "户外爱好者", Patterns: []string{`户外|登山|hiking|outdoor`}},
			{Name: "时尚潮人", Patterns: []string{`时尚|潮流|fashion|trendy`}},
			{Name: "日常穿着者", Patterns: []string{`休闲|日常|casual|walking`}},
		},
	},
	{
		Name:     "运动器材",
		Patterns: []string{`器材|装备|equipment|gear`},
		Segments: []SegmentSpec{
			{Name: "专业运动员", Patterns: []string{`专业|pro|athlete`}},
			{Name: "健身爱好者", Patterns: []string{`健身|训练|fitness`}},
			{Name: "运动新手", Patterns: []string{`入门|新手|beginner`}},
			{Name: "户外运动者", Patterns: []string{`户外|adventure`}},
		},
	},
}

// Default returns the built-in category mapping.
func Default() *Mapping {
	m, err := New(defaultSpecs)
	if err != nil {
		// The built-in specs are compile-checked by tests; a failure here is
		// a programming error.
		panic(err)
	}
	return m
}
