package question

import "strings"

// recordFields is the number of pipe-delimited fields per line:
// prompt, four options, correct answer.
const recordFields = OptionCount + 2

// ParseRecords converts the generator's raw text blob into validated
// questions. One record per line, fields separated by '|'. A line is
// accepted only when all six fields are non-empty, the answer exactly
// matches one of the options, and exclude (if set) does not veto the
// prompt. Duplicate prompts within the same blob are dropped after the
// first occurrence. Output order follows input order.
func ParseRecords(text string, exclude func(prompt string) bool) []Question {
	var out []Question
	seen := make(map[string]struct{})

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) != recordFields {
			parseRejected.Inc()
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		q := Question{
			Prompt:  fields[0],
			Options: fields[1 : 1+OptionCount],
			Answer:  fields[recordFields-1],
			Source:  SourceGenerated,
		}
		if !q.Valid() {
			parseRejected.Inc()
			continue
		}
		if exclude != nil && exclude(q.Prompt) {
			parseRejected.Inc()
			continue
		}
		if _, dup := seen[q.Prompt]; dup {
			parseRejected.Inc()
			continue
		}

		seen[q.Prompt] = struct{}{}
		out = append(out, q)
	}
	return out
}
