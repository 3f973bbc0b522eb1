package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

func TestPrintCoverage(t *testing.T) {
	regions := []model.Region{
		{ID: "R1", Counts: map[string]int{"A": 300, "B": 100}},
		{ID: "R2", Counts: map[string]int{"A": 500, "B": 100}},
	}

	var buf bytes.Buffer
	printCoverage(&buf, "testville", []string{"A", "B"}, regions)

	output := buf.String()
	assert.Contains(t, output, "testville: 2 regions, 1000 people")
	assert.Contains(t, output, "CATEGORY")
	assert.Contains(t, output, "POPULATION")
	assert.Contains(t, output, "SHARE")
	assert.Contains(t, output, "800")
	assert.Contains(t, output, "80.0%")
	assert.Contains(t, output, "200")
	assert.Contains(t, output, "20.0%")
}

func TestPrintCoverage_Empty(t *testing.T) {
	var buf bytes.Buffer
	printCoverage(&buf, "ghosttown", []string{"A"}, nil)

	output := buf.String()
	assert.Contains(t, output, "ghosttown: 0 regions, 0 people")
	assert.Contains(t, output, "0.0%")
}
