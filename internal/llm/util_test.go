package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced competitor list",
			input:    "```json\n[\"Zara\", \"H&M\"]\n```",
			expected: `["Zara", "H&M"]`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"score\": 72}\n```",
			expected: `{"score": 72}`,
		},
		{
			name:     "plain object",
			input:    `{"score": 40, "reason": "adjacent market"}`,
			expected: `{"score": 40, "reason": "adjacent market"}`,
		},
		{
			name:     "preamble before list",
			input:    "Here are the main competitors of Etsy:\n[\"eBay\", \"Amazon Handmade\"]",
			expected: `["eBay", "Amazon Handmade"]`,
		},
		{
			name:     "chatter after object",
			input:    "{\"score\": 85}\nLet me know if you need more detail.",
			expected: `{"score": 85}`,
		},
		{
			name:     "fence with trailing chatter",
			input:    "```json\n{\"score\": 10}\n```\nThese two serve different buyers.",
			expected: `{"score": 10}`,
		},
		{
			name:     "no JSON at all",
			input:    "I could not find any competitors.",
			expected: "I could not find any competitors.",
		},
		{
			name:     "empty",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		open     byte
		close    byte
		expected string
	}{
		{"nested object", `{"a": {"b": 1}} tail`, '{', '}', `{"a": {"b": 1}}`},
		{"braces inside strings", `{"reason": "uses {curly} names"}`, '{', '}', `{"reason": "uses {curly} names"}`},
		{"escaped quote", `{"name": "Toys \"R\" Us"}`, '{', '}', `{"name": "Toys \"R\" Us"}`},
		{"brackets inside strings", `["[Brand]", "B"] and more`, '[', ']', `["[Brand]", "B"]`},
		{"unbalanced", `{"score": 5`, '{', '}', ""},
		{"wrong opener", `["a"]`, '{', '}', ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractBalanced(tt.input, tt.open, tt.close))
		})
	}
}

func TestExtractJSONValue_PicksByOpener(t *testing.T) {
	assert.Equal(t, `["Nike"]`, extractJSONValue(`["Nike"] extra`))
	assert.Equal(t, `{"score": 1}`, extractJSONValue(`{"score": 1}]`))
	assert.Empty(t, extractJSONArray(`{"x": 1}`))
	assert.Empty(t, extractJSONObject(`["x"]`))
}
