package gemini

import "testing"

func TestExtractText_CandidatesWithStringContent(t *testing.T) {
	raw := []byte(`{"candidates":[{"content":"hi there"}]}`)
	text, ok := ExtractText(raw)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if text != "hi there" {
		t.Fatalf("text=%q", text)
	}
}

func TestExtractText_ListFieldVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"candidates_text_field", `{"candidates":[{"text":"from text"}]}`, "from text"},
		{"candidates_output_field", `{"candidates":[{"output":"from output"}]}`, "from output"},
		{"outputs_list", `{"outputs":[{"content":"from outputs"}]}`, "from outputs"},
		{"output_list", `{"output":[{"content":"from output list"}]}`, "from output list"},
		{"bare_string_element", `{"candidates":["plain"]}`, "plain"},
		{"whitespace_trimmed", `{"candidates":[{"content":"  padded  "}]}`, "padded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, ok := ExtractText([]byte(tc.raw))
			if !ok {
				t.Fatalf("expected ok=true")
			}
			if text != tc.want {
				t.Fatalf("text=%q want %q", text, tc.want)
			}
		})
	}
}

func TestExtractText_TopLevelFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"content", `{"content":"top content"}`, "top content"},
		{"generated_text", `{"generated_text":"gen"}`, "gen"},
		{"response", `{"response":"resp"}`, "resp"},
		{"text", `{"text":"plain text"}`, "plain text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, ok := ExtractText([]byte(tc.raw))
			if !ok {
				t.Fatalf("expected ok=true")
			}
			if text != tc.want {
				t.Fatalf("text=%q want %q", text, tc.want)
			}
		})
	}
}

func TestExtractText_ListFieldWinsOverTopLevel(t *testing.T) {
	raw := []byte(`{"candidates":[{"content":"from list"}],"content":"from top"}`)
	text, ok := ExtractText(raw)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if text != "from list" {
		t.Fatalf("text=%q", text)
	}
}

func TestExtractText_DeepSearchFallback(t *testing.T) {
	raw := []byte(`{"meta":{"nested":{"deep":"found it"}}}`)
	text, ok := ExtractText(raw)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if text != "found it" {
		t.Fatalf("text=%q", text)
	}
}

func TestExtractText_DeepSearchIsDeterministic(t *testing.T) {
	raw := []byte(`{"zzz":"late","aaa":"early"}`)
	for i := 0; i < 20; i++ {
		text, ok := ExtractText(raw)
		if !ok {
			t.Fatalf("expected ok=true")
		}
		if text != "early" {
			t.Fatalf("text=%q", text)
		}
	}
}

func TestExtractText_NoUsableText(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not_json", `not json at all`},
		{"empty_object", `{}`},
		{"empty_candidates", `{"candidates":[]}`},
		{"numbers_only", `{"count":3,"flags":[true,false]}`},
		{"whitespace_strings", `{"content":"   "}`},
		{"null_payload", `null`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if text, ok := ExtractText([]byte(tc.raw)); ok {
				t.Fatalf("expected ok=false, got %q", text)
			}
		})
	}
}
