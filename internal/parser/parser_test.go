package parser

import (
	"reflect"
	"testing"
)

func TestTags(t *testing.T) {
	got := Tags("Call the #plumber about the #Kitchen sink.\n#plumber again and #work/q3")
	want := []string{"plumber", "kitchen", "work/q3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %v, want %v", got, want)
	}
}

func TestTags_IgnoresHeadingsAndAnchors(t *testing.T) {
	got := Tags("# Heading\nsee page#anchor and #1 but #ok")
	if !reflect.DeepEqual(got, []string{"ok"}) {
		t.Errorf("Tags = %v, want [ok]", got)
	}
}

func TestTags_Empty(t *testing.T) {
	if got := Tags(""); len(got) != 0 {
		t.Errorf("Tags(\"\") = %v, want empty", got)
	}
}
