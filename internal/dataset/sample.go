package dataset

import (
	"bytes"
	_ "embed"
)

// sampleCSV is the embedded 12-row 2024 sample dataset, used when no file
// is uploaded and the sample toggle is enabled.
//
//go:embed sample.csv
var sampleCSV []byte

// SampleBytes returns a copy of the embedded sample CSV bytes
func SampleBytes() []byte {
	out := make([]byte, len(sampleCSV))
	copy(out, sampleCSV)
	return out
}

// Sample parses the embedded sample CSV. The embedded data is known good,
// so a parse failure here is a programming error.
func Sample() *Table {
	table, err := ParseCSV(bytes.NewReader(sampleCSV))
	if err != nil {
		panic("dataset: embedded sample is malformed: " + err.Error())
	}
	return table
}
