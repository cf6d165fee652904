package id

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Generator struct{}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) generate(prefix string) string {
	id, err := gonanoid.New(21)
	if err != nil {
		return prefix + "_fallback"
	}
	return prefix + "_" + id
}

func (g *Generator) GeneratePromptVersionID() string {
	return g.generate("pv")
}

func (g *Generator) GenerateDatasetID() string {
	return g.generate("ds")
}

func (g *Generator) GenerateEntryID() string {
	return g.generate("de")
}

func (g *Generator) GenerateEvaluationID() string {
	return g.generate("ev")
}

func (g *Generator) GenerateResultID() string {
	return g.generate("er")
}

func (g *Generator) GenerateImprovementID() string {
	return g.generate("imp")
}
