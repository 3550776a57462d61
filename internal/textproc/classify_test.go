package textproc

import "testing"

func TestClassifyVowels(t *testing.T) {
	cases := map[rune]Class{
		'a': ClassA, 'A': ClassA, 'ã': ClassA, 'Á': ClassA, 'æ': ClassA,
		'e': ClassE, 'É': ClassE, 'ê': ClassE,
		'i': ClassI, 'Í': ClassI, 'ï': ClassI,
		'o': ClassO, 'õ': ClassO, 'Ø': ClassO,
		'u': ClassU, 'Ú': ClassU, 'ü': ClassU,
		'y': ClassY, 'Y': ClassY, 'ý': ClassY, 'ÿ': ClassY,
	}
	for r, want := range cases {
		if got := Classify(r); got != want {
			t.Fatalf("Classify(%q)=%d; want %d", r, got, want)
		}
		if !Classify(r).IsVowel() {
			t.Fatalf("Classify(%q) not a vowel", r)
		}
	}
}

func TestClassifySeparatorsAndOthers(t *testing.T) {
	for _, r := range " \t\n\r\"-_[](),.:;?!«»¨–—…“”'`‘’" {
		if got := Classify(r); got != ClassSeparator {
			t.Fatalf("Classify(%q)=%d; want separator", r, got)
		}
	}
	for _, r := range "bcçdfgBCÇ0123456789@#ñ¯" {
		if got := Classify(r); got != ClassOther {
			t.Fatalf("Classify(%q)=%d; want other", r, got)
		}
	}
}

func TestClosesWord(t *testing.T) {
	for _, r := range "'`‘’" {
		if ClosesWord(r) {
			t.Fatalf("apostrophe %q must not close a word", r)
		}
		if !IsApostrophe(r) {
			t.Fatalf("IsApostrophe(%q)=false", r)
		}
	}
	for _, r := range " .,—\n" {
		if !ClosesWord(r) {
			t.Fatalf("%q must close a word", r)
		}
	}
	if ClosesWord('a') {
		t.Fatalf("a vowel must not close a word")
	}
}
