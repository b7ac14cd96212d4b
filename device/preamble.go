package device

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Precision selects the C type of static arrays
type Precision uint8

const (
	Float64 Precision = iota
	Float32
)

// FormatStaticMatrix formats a single matrix as a static C array
func FormatStaticMatrix(name string, m mat.Matrix, precision Precision) string {
	rows, cols := m.Dims()
	var sb strings.Builder

	typeStr := "double"
	if precision == Float32 {
		typeStr = "float"
	}
	sb.WriteString(fmt.Sprintf("const %s %s[%d][%d] = {\n", typeStr, name, rows, cols))

	for i := 0; i < rows; i++ {
		sb.WriteString("    {")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			val := m.At(i, j)
			if precision == Float32 {
				sb.WriteString(fmt.Sprintf("%.7ef", val))
			} else {
				sb.WriteString(fmt.Sprintf("%.15e", val))
			}
		}
		sb.WriteString("}")
		if i < rows-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

// FormatStaticMatrices formats every matrix, sorted by name
func FormatStaticMatrices(matrices map[string]mat.Matrix, precision Precision) string {
	names := make([]string, 0, len(matrices))
	for name := range matrices {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(FormatStaticMatrix(name, matrices[name], precision))
	}
	return sb.String()
}
