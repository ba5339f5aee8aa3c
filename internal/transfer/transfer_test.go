package transfer

import (
	"reflect"
	"testing"
)

func TestAddMimePreservesOrder(t *testing.T) {
	tr := New(nil)
	tr.AddMime("text/plain")
	tr.AddMime("text/html")

	want := []string{"text/plain", "text/html"}
	if !reflect.DeepEqual(tr.Mimes, want) {
		t.Fatalf("Mimes = %v, want %v", tr.Mimes, want)
	}
}

func TestNewTransferStartsWithNoMimes(t *testing.T) {
	tr := New(nil)
	if len(tr.Mimes) != 0 {
		t.Fatalf("new Transfer has Mimes = %v, want empty", tr.Mimes)
	}
}
