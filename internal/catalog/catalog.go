// Package catalog holds the static configuration the service ships with:
// assessment definitions, the intervention catalog, library articles, form
// options, voice languages and the coaching prompts.
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"math"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml prompts/*
var files embed.FS

type Scale struct {
	Min    int      `yaml:"min" json:"min"`
	Max    int      `yaml:"max" json:"max"`
	Labels []string `yaml:"labels" json:"labels"`
}

type Question struct {
	ID       string `yaml:"id" json:"id"`
	Text     string `yaml:"text" json:"text"`
	Category string `yaml:"category" json:"category,omitempty"`
	Reverse  bool   `yaml:"reverse" json:"reverse,omitempty"`
}

// Level is one interpretation band, selected when the percentage of the
// maximum possible score is at least MinPercent.
type Level struct {
	MinPercent float64 `yaml:"min_percent" json:"min_percent"`
	Level      string  `yaml:"level" json:"level"`
	Message    string  `yaml:"message" json:"message"`
}

type Assessment struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	ShortName   string     `yaml:"short_name" json:"short_name"`
	Description string     `yaml:"description" json:"description"`
	Citation    string     `yaml:"citation" json:"citation,omitempty"`
	Scale       Scale      `yaml:"scale" json:"scale"`
	Questions   []Question `yaml:"questions" json:"questions"`
	Levels      []Level    `yaml:"levels" json:"levels"`
}

func (a *Assessment) MaxPossible() float64 {
	return float64(len(a.Questions) * a.Scale.Max)
}

func (a *Assessment) Question(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Interpret picks the level for a total score. Levels are ordered from the
// highest threshold down and the last one has MinPercent 0.
func (a *Assessment) Interpret(total float64) (Level, float64) {
	var pct float64
	if top := a.MaxPossible(); top > 0 {
		pct = total / top * 100
	}
	for _, l := range a.Levels {
		if pct >= l.MinPercent {
			return l, pct
		}
	}
	return a.Levels[len(a.Levels)-1], pct
}

type Intervention struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	Description     string `yaml:"description" json:"description"`
	Category        string `yaml:"category" json:"category"`
	Instructions    string `yaml:"instructions" json:"instructions"`
	DurationMinutes int    `yaml:"duration_minutes" json:"duration_minutes"`
	DifficultyLevel string `yaml:"difficulty_level" json:"difficulty_level"`
	EvidenceBase    string `yaml:"evidence_base" json:"evidence_base"`
}

type Article struct {
	ID           string   `yaml:"id" json:"id"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Category     string   `yaml:"category" json:"category"`
	ReadTime     int      `yaml:"read_time" json:"read_time"`
	KeyTakeaways []string `yaml:"key_takeaways" json:"key_takeaways"`
	References   []string `yaml:"references" json:"references,omitempty"`
	Content      string   `yaml:"content" json:"content"`
}

type Language struct {
	Code     string `yaml:"code" json:"code"`
	Name     string `yaml:"name" json:"name"`
	Voice    string `yaml:"voice" json:"voice"`
	Greeting string `yaml:"greeting" json:"greeting"`
}

type Option struct {
	Value       string `yaml:"value" json:"value"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description,omitempty"`
	Prompt      string `yaml:"prompt" json:"prompt,omitempty"`
	Duration    int    `yaml:"duration" json:"duration,omitempty"`
}

type Mood struct {
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type CoachCopy struct {
	Welcome      string   `yaml:"welcome" json:"welcome"`
	NewSession   string   `yaml:"new_session" json:"new_session"`
	Fallback     string   `yaml:"fallback" json:"fallback"`
	QuickPrompts []string `yaml:"quick_prompts" json:"quick_prompts"`
}

type Forms struct {
	JournalEntryTypes      []Option  `yaml:"journal_entry_types"`
	Moods                  []Mood    `yaml:"moods"`
	GoalCategories         []Option  `yaml:"goal_categories"`
	NucalmSessionTypes     []Option  `yaml:"nucalm_session_types"`
	InterventionCategories []Option  `yaml:"intervention_categories"`
	ArticleCategories      []Option  `yaml:"article_categories"`
	Coach                  CoachCopy `yaml:"coach"`
}

type Catalog struct {
	Assessments   []Assessment
	Interventions []Intervention
	Articles      []Article
	Languages     []Language
	Forms         Forms
	CoachPrompt   string

	voice *template.Template
}

var (
	once    sync.Once
	loaded  *Catalog
	loadErr error
)

// Default returns the embedded catalog, loading it on first use.
func Default() *Catalog {
	once.Do(func() { loaded, loadErr = Load() })
	if loadErr != nil {
		panic(fmt.Sprintf("catalog: %v", loadErr))
	}
	return loaded
}

func Load() (*Catalog, error) {
	c := &Catalog{}

	var a struct {
		Assessments []Assessment `yaml:"assessments"`
	}
	var i struct {
		Interventions []Intervention `yaml:"interventions"`
	}
	var r struct {
		Articles []Article `yaml:"articles"`
	}
	var l struct {
		Languages []Language `yaml:"languages"`
	}
	for name, dst := range map[string]any{
		"data/assessments.yaml":   &a,
		"data/interventions.yaml": &i,
		"data/articles.yaml":      &r,
		"data/languages.yaml":     &l,
		"data/forms.yaml":         &c.Forms,
	} {
		if err := decode(name, dst); err != nil {
			return nil, err
		}
	}
	c.Assessments, c.Interventions, c.Articles, c.Languages = a.Assessments, i.Interventions, r.Articles, l.Languages

	prompt, err := files.ReadFile("prompts/coach.md")
	if err != nil {
		return nil, fmt.Errorf("read coach prompt: %w", err)
	}
	c.CoachPrompt = strings.TrimSpace(string(prompt))

	c.voice, err = template.ParseFS(files, "prompts/voice.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse voice prompt: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(name string, dst any) error {
	data, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (c *Catalog) validate() error {
	for _, a := range c.Assessments {
		if len(a.Questions) == 0 || len(a.Levels) == 0 {
			return fmt.Errorf("assessment %s: missing questions or levels", a.ID)
		}
		if last := a.Levels[len(a.Levels)-1]; last.MinPercent != 0 {
			return fmt.Errorf("assessment %s: lowest level must start at 0", a.ID)
		}
		for k := 1; k < len(a.Levels); k++ {
			if a.Levels[k].MinPercent >= a.Levels[k-1].MinPercent {
				return fmt.Errorf("assessment %s: levels not descending", a.ID)
			}
		}
	}
	if len(c.Languages) == 0 || c.Languages[0].Code != "en" {
		return fmt.Errorf("languages: english must come first")
	}
	return nil
}

func (c *Catalog) Assessment(id string) (*Assessment, bool) {
	for k := range c.Assessments {
		if c.Assessments[k].ID == id {
			return &c.Assessments[k], true
		}
	}
	return nil, false
}

func (c *Catalog) Intervention(id string) (*Intervention, bool) {
	for k := range c.Interventions {
		if c.Interventions[k].ID == id {
			return &c.Interventions[k], true
		}
	}
	return nil, false
}

func (c *Catalog) InterventionsIn(category string) []Intervention {
	if category == "" || category == "all" {
		return c.Interventions
	}
	out := []Intervention{}
	for _, i := range c.Interventions {
		if i.Category == category {
			out = append(out, i)
		}
	}
	return out
}

func (c *Catalog) Article(id string) (*Article, bool) {
	for k := range c.Articles {
		if c.Articles[k].ID == id {
			return &c.Articles[k], true
		}
	}
	return nil, false
}

// SearchArticles filters by category and a case-insensitive match on title,
// description or takeaways.
func (c *Catalog) SearchArticles(category, query string) []Article {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Article{}
	for _, a := range c.Articles {
		if category != "" && category != "all" && a.Category != category {
			continue
		}
		if q != "" && !articleMatches(a, q) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func articleMatches(a Article, q string) bool {
	if strings.Contains(strings.ToLower(a.Title), q) || strings.Contains(strings.ToLower(a.Description), q) {
		return true
	}
	for _, t := range a.KeyTakeaways {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Language falls back to English for unknown codes.
func (c *Catalog) Language(code string) Language {
	for _, l := range c.Languages {
		if l.Code == code {
			return l
		}
	}
	return c.Languages[0]
}

// VoicePrompt renders the voice coaching instructions for a language code.
func (c *Catalog) VoicePrompt(code string) string {
	var buf bytes.Buffer
	if err := c.voice.Execute(&buf, struct{ Language string }{c.Language(code).Name}); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

func (c *Catalog) HasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

func (c *Catalog) SessionType(value string) (Option, bool) {
	for _, o := range c.Forms.NucalmSessionTypes {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// Round rounds to the given number of decimals, halves away from zero.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
