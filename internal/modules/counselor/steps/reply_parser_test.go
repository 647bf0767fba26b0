package steps

import "testing"

func TestParseDualChannel(t *testing.T) {
	cases := []struct {
		name      string
		content   string
		reply     string
		recs      int
		status    ParseStatus
		firstName string
	}{
		{
			name:      "prose and block",
			content:   "Here are two options.\n\nRECOMMENDATIONS:\n```json\n[{\"name\": \"Alpha\", \"pros\": [\"a\"]}, {\"name\": \"Beta\"}]\n```\nAnything else?",
			reply:     "Here are two options.",
			recs:      2,
			status:    ParseOK,
			firstName: "Alpha",
		},
		{
			name:    "prose only",
			content: "  Tell me about your budget.  ",
			reply:   "Tell me about your budget.",
			status:  ParseNoMarker,
		},
		{
			name:    "empty content",
			content: " \n ",
			reply:   EmptyResponseReply,
			status:  ParseEmpty,
		},
		{
			name:    "malformed block",
			content: "Some prose.\nRECOMMENDATIONS:\n```json\n[{\"name\": \"Alpha\",]\n```",
			reply:   "Some prose.",
			status:  ParseMalformed,
		},
		{
			name:    "marker without fence",
			content: "Some prose.\nRECOMMENDATIONS: [{\"name\": \"Alpha\"}]",
			reply:   "Some prose.",
			status:  ParseNoBlock,
		},
		{
			name:    "unterminated fence",
			content: "Some prose.\nRECOMMENDATIONS:\n```json\n[{\"name\": \"Alpha\"}]",
			reply:   "Some prose.",
			status:  ParseNoBlock,
		},
		{
			name:    "object instead of array",
			content: "Prose.\nRECOMMENDATIONS:\n```json\n{\"name\": \"Alpha\"}\n```",
			reply:   "Prose.",
			status:  ParseMalformed,
		},
		{
			name:      "untagged fence",
			content:   "Prose.\nRECOMMENDATIONS:\n```\n[{\"name\": \"Alpha\"}]\n```",
			reply:     "Prose.",
			recs:      1,
			status:    ParseOK,
			firstName: "Alpha",
		},
		{
			name:      "only first marker splits",
			content:   "Prose.\nRECOMMENDATIONS:\n```json\n[{\"name\": \"RECOMMENDATIONS: Alpha\"}]\n```",
			reply:     "Prose.",
			recs:      1,
			status:    ParseOK,
			firstName: "RECOMMENDATIONS: Alpha",
		},
		{
			name:    "marker with no prose",
			content: "RECOMMENDATIONS:\n```json\nnot json\n```",
			reply:   "RECOMMENDATIONS:\n```json\nnot json\n```",
			status:  ParseMalformed,
		},
		{
			name:    "empty array",
			content: "Prose.\nRECOMMENDATIONS:\n```json\n[]\n```",
			reply:   "Prose.",
			status:  ParseOK,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDualChannel(tc.content)
			if got.Reply != tc.reply {
				t.Fatalf("reply: want=%q got=%q", tc.reply, got.Reply)
			}
			if got.Status != tc.status {
				t.Fatalf("status: want=%s got=%s", tc.status, got.Status)
			}
			if got.Recommendations == nil {
				t.Fatalf("recommendations must be non-nil")
			}
			if len(got.Recommendations) != tc.recs {
				t.Fatalf("recs: want=%d got=%d", tc.recs, len(got.Recommendations))
			}
			if tc.firstName != "" && got.Recommendations[0].Name != tc.firstName {
				t.Fatalf("first name: want=%q got=%q", tc.firstName, got.Recommendations[0].Name)
			}
		})
	}
}

func TestParseDualChannelLooseEntries(t *testing.T) {
	content := "Two picks.\nRECOMMENDATIONS:\n```json\n[" +
		`{"name":"Alpha MBA","accreditations":["AICTE","UGC"],"pros":["Flexible"],"fees":"₹40,000"},` +
		`{"name":"Beta MBA","pros":"Strong placements","cons":null,"reasons":[1,"ROI"]},` +
		`"Gamma MBA",` +
		`null` +
		"]\n```"

	got := ParseDualChannel(content)
	if got.Status != ParseOK {
		t.Fatalf("status: want=%s got=%s", ParseOK, got.Status)
	}
	if got.Skipped != 2 {
		t.Fatalf("skipped: want=2 got=%d", got.Skipped)
	}
	if len(got.Recommendations) != 2 {
		t.Fatalf("recs: want=2 got=%d", len(got.Recommendations))
	}

	alpha, beta := got.Recommendations[0], got.Recommendations[1]
	if alpha.Name != "Alpha MBA" || alpha.Accreditations != "AICTE, UGC" {
		t.Fatalf("alpha: got name=%q accreditations=%q", alpha.Name, alpha.Accreditations)
	}
	if len(alpha.Pros) != 1 || alpha.Pros[0] != "Flexible" {
		t.Fatalf("alpha pros: got %v", alpha.Pros)
	}
	if beta.Name != "Beta MBA" || len(beta.Pros) != 1 || beta.Pros[0] != "Strong placements" {
		t.Fatalf("beta: got name=%q pros=%v", beta.Name, beta.Pros)
	}
	if beta.Cons != nil {
		t.Fatalf("beta cons: want nil got %v", beta.Cons)
	}
	if len(beta.Reasons) != 2 || beta.Reasons[0] != "1" || beta.Reasons[1] != "ROI" {
		t.Fatalf("beta reasons: got %v", beta.Reasons)
	}
}
