package popup

import "testing"

func TestDetectSlashCommandAtLineStart(t *testing.T) {
	trig, ok := Detect("/mod", 4)
	if !ok {
		t.Fatal("expected a trigger")
	}
	if trig.Kind != KindCommand || trig.Query != "mod" {
		t.Fatalf("got %+v", trig)
	}
}

func TestDetectSlashMidSentenceDoesNotTrigger(t *testing.T) {
	if _, ok := Detect("please run /model now", 12); ok {
		t.Fatal("expected no trigger for a slash mid-sentence")
	}
}

func TestDetectAtFileAnywhere(t *testing.T) {
	trig, ok := Detect("see @read", 9)
	if !ok {
		t.Fatal("expected a trigger")
	}
	if trig.Kind != KindFile || trig.Query != "read" {
		t.Fatalf("got %+v", trig)
	}
}

func TestDetectSkillDoubleSlash(t *testing.T) {
	trig, ok := Detect("//debu", 6)
	if !ok {
		t.Fatal("expected a trigger")
	}
	if trig.Kind != KindSkill || trig.Query != "debu" {
		t.Fatalf("got %+v", trig)
	}
}

func TestDetectNoTriggerOnPlainWord(t *testing.T) {
	if _, ok := Detect("hello world", 11); ok {
		t.Fatal("expected no trigger")
	}
}
