package type14

import "testing"

func TestFromFields(t *testing.T) {

	got, err := FromFields([]int64{1357, 42, 18})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := Message{Week: 1357, HourOfWeek: 42, LeapSeconds: 18}
	if want != *got {
		t.Errorf("want %v got %v", want, *got)
	}
}

func TestFromFieldsWrongCount(t *testing.T) {
	const want = "GPS time message needs 3 fields"
	_, err := FromFields([]int64{1357, 42})
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != want {
		t.Errorf("want error %s got %s", want, err.Error())
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	message := New(1023, 167, 63)
	got, err := FromFields(message.Fields())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if *message != *got {
		t.Errorf("want %v got %v", *message, *got)
	}
}

func TestString(t *testing.T) {
	const want = "GPS week 1357, hour 42, leap seconds 18\n"
	got := New(1357, 42, 18).String()
	if got != want {
		t.Errorf("want %s got %s", want, got)
	}
}
