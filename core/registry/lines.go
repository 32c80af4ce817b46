package registry

import "strings"

// SplitLines breaks data into lines that keep their "\n". The last line
// lacks it when the data does not end with a newline.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func JoinLines(lines []string) []byte {
	return []byte(strings.Join(lines, ""))
}
