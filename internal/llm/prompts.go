package llm

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// PromptConfig represents a prompt loaded from an XML file.
// It contains the system prompt and the user prompt template.
type PromptConfig struct {
	XMLName xml.Name `xml:"prompt"`
	System  string   `xml:"system"`
	User    string   `xml:"user"`
}

// DefaultPricePrompt is used when no prompt file is configured.
var DefaultPricePrompt = PromptConfig{
	System: `You estimate fair labour prices for home service jobs in the Philippines, in PHP.
Answer with one JSON object only:
{"min_price": number, "suggested_price": number, "max_price": number, "confidence": number between 0 and 1}
min_price <= suggested_price <= max_price. Do not include materials cost.`,
	User: `Category: {{CATEGORY}}
Title: {{TITLE}}
Description: {{DESCRIPTION}}
Urgency: {{URGENCY}}
Skill level: {{SKILL_LEVEL}}
Job scope: {{JOB_SCOPE}}
Work environment: {{WORK_ENVIRONMENT}}`,
}

// LoadPrompt reads and parses a prompt configuration from an XML file.
func LoadPrompt(filepath string) (*PromptConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}

	var config PromptConfig
	if err := xml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse prompt xml: %w", err)
	}
	if strings.TrimSpace(config.System) == "" || strings.TrimSpace(config.User) == "" {
		return nil, fmt.Errorf("prompt %s: system and user are required", filepath)
	}

	return &config, nil
}

// BuildUserPrompt replaces each {{KEY}} in the user prompt template. Unset
// values render as "unspecified".
func (p *PromptConfig) BuildUserPrompt(vars map[string]string) string {
	out := p.User
	for k, v := range vars {
		if strings.TrimSpace(v) == "" {
			v = "unspecified"
		}
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}
