package steps

import "testing"

func TestIsCasual(t *testing.T) {
	cases := map[string]bool{
		"thanks":                         true,
		"Thank you so much for the help": true,
		"hello, I need an MBA":           true,
		"ok great":                       true,
		"Good morning":                   true,
		"  BYE  ":                        true,
		"":                               false,
		"I want finance specialization with low fees": false,
		"Which programs have NAAC A+ accreditation?":  false,
		"online mba options":                          false,
	}
	for msg, want := range cases {
		if got := IsCasual(msg); got != want {
			t.Fatalf("IsCasual(%q): want=%v got=%v", msg, want, got)
		}
	}
}

func TestClassifyCasual(t *testing.T) {
	cases := map[string]CasualCategory{
		"thanks":          CasualThanks,
		"I appreciate it": CasualThanks,
		"hey":             CasualGreeting,
		"goodbye":         CasualFarewell,
		"ok":              CasualGeneral,
	}
	for msg, want := range cases {
		if got := ClassifyCasual(msg); got != want {
			t.Fatalf("ClassifyCasual(%q): want=%s got=%s", msg, want, got)
		}
	}
}

func TestCasualReplyIsDeterministic(t *testing.T) {
	p := DefaultPersona()
	first := CasualReply(p, "Thanks")
	if first != CasualReply(p, "  thanks ") {
		t.Fatalf("same utterance must give same reply")
	}
	found := false
	for _, r := range p.CasualReplies.Thanks {
		if r == first {
			found = true
		}
	}
	if !found {
		t.Fatalf("reply %q not from the thanks pool", first)
	}
}
