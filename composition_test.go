package windowkit

import "testing"

// recordingDelegate is an in-memory text store for composition tests.
type recordingDelegate struct {
	text     string
	selStart int
	inserted []string
	progress []string
	panicOn  string
}

func (d *recordingDelegate) InsertText(text string) {
	if d.panicOn == "insert" {
		panic("delegate bug")
	}
	d.inserted = append(d.inserted, text)
	d.text += text
	d.selStart = len([]rune(d.text))
}

func (d *recordingDelegate) SelectedRange() (int, int) {
	if d.panicOn == "selected" {
		panic("delegate bug")
	}
	return d.selStart, 0
}

func (d *recordingDelegate) RectForRange(int, int) (Bounds, bool) {
	return Bounds{Origin: Point{X: 10, Y: 20}, Size: Size{Width: 40, Height: 16}}, true
}

func (d *recordingDelegate) IndexForPoint(Point) int { return 3 }

func (d *recordingDelegate) CompositionChanged(text string, _, _ int) {
	d.progress = append(d.progress, text)
}

func TestCompositionLifecycle(t *testing.T) {
	d := &recordingDelegate{text: "ab", selStart: 2}
	b := NewCompositionBridge(d)

	if b.State() != CompositionIdle {
		t.Fatalf("fresh bridge not idle")
	}

	// "ko" -> "kon" -> commit.
	b.SetMarkedText("ko", 2, 2)
	if b.State() != CompositionComposing {
		t.Fatalf("marked text did not start composing")
	}
	start, length, ok := b.MarkedRange()
	if !ok || start != 2 || length != 2 {
		t.Fatalf("marked range = (%d,%d,%v), want (2,2,true)", start, length, ok)
	}

	b.SetMarkedText("kon", 3, 3)
	if _, length, _ = b.MarkedRange(); length != 3 {
		t.Fatalf("marked length after update = %d, want 3", length)
	}
	selStart, selLen := b.SelectedRange()
	if selStart != 5 || selLen != 0 {
		t.Fatalf("selected range = (%d,%d), want caret at marked end", selStart, selLen)
	}

	b.InsertText("こん")
	if b.State() != CompositionIdle {
		t.Fatalf("commit did not return to idle")
	}
	if len(d.inserted) != 1 || d.inserted[0] != "こん" {
		t.Fatalf("inserted = %v, want exactly one commit", d.inserted)
	}
	if _, _, ok := b.MarkedRange(); ok {
		t.Fatalf("marked range survives the commit")
	}
	// Observers saw the marked progress and the final clear.
	want := []string{"ko", "kon", ""}
	if len(d.progress) != len(want) {
		t.Fatalf("progress = %v, want %v", d.progress, want)
	}
}

func TestUnmarkAbandonsWithoutInsert(t *testing.T) {
	d := &recordingDelegate{}
	b := NewCompositionBridge(d)

	b.SetMarkedText("ka", 2, 2)
	b.UnmarkText()
	if b.State() != CompositionIdle {
		t.Fatalf("unmark did not return to idle")
	}
	if len(d.inserted) != 0 {
		t.Fatalf("abandoned composition committed text: %v", d.inserted)
	}

	// Unmark while idle is a no-op.
	b.UnmarkText()
	if got := d.progress; len(got) != 2 || got[1] != "" {
		t.Fatalf("progress = %v", got)
	}
}

func TestInsertOutsideComposition(t *testing.T) {
	d := &recordingDelegate{}
	b := NewCompositionBridge(d)

	b.InsertText("x")
	if len(d.inserted) != 1 || d.inserted[0] != "x" {
		t.Fatalf("plain insert lost: %v", d.inserted)
	}
	if len(d.progress) != 0 {
		t.Fatalf("plain insert reported composition progress")
	}
}

func TestSelectionSubRangeClamped(t *testing.T) {
	d := &recordingDelegate{}
	b := NewCompositionBridge(d)

	b.SetMarkedText("abc", -2, 99)
	start, length := b.SelectedRange()
	if start != 0 || length != 3 {
		t.Fatalf("clamped selection = (%d,%d), want (0,3)", start, length)
	}
}

func TestRoutesKeyOnlyPrintableWhileComposing(t *testing.T) {
	b := NewCompositionBridge(&recordingDelegate{})

	printable := KeyDownEvent{Rune: 'k'}
	if b.RoutesKey(printable) {
		t.Fatalf("idle bridge claimed a key")
	}

	b.SetMarkedText("k", 1, 1)
	if !b.RoutesKey(printable) {
		t.Fatalf("composing bridge did not claim a printable key")
	}
	if b.RoutesKey(KeyDownEvent{Keycode: 53}) {
		t.Fatalf("claimed a non-printable key")
	}
	if b.RoutesKey(KeyDownEvent{Rune: 'k', Modifiers: ModCommand}) {
		t.Fatalf("claimed a command chord")
	}
}

func TestDelegatePanicContainedAtBoundary(t *testing.T) {
	d := &recordingDelegate{panicOn: "insert"}
	b := NewCompositionBridge(d)

	b.SetMarkedText("a", 1, 1)
	// Must not propagate: this call arrives from native code.
	b.InsertText("a")

	if b.State() != CompositionIdle {
		t.Fatalf("state not cleared despite delegate panic")
	}

	d2 := &recordingDelegate{panicOn: "selected"}
	b2 := NewCompositionBridge(d2)
	b2.SetMarkedText("a", 1, 1) // SelectedRange panics while capturing the doc start
	start, length := b2.SelectedRange()
	_ = start
	_ = length
}

func TestRectAndIndexPassThrough(t *testing.T) {
	b := NewCompositionBridge(&recordingDelegate{})

	x, y, w, h, ok := b.FirstRectForRange(0, 2)
	if !ok || x != 10 || y != 20 || w != 40 || h != 16 {
		t.Fatalf("rect = (%v,%v,%v,%v,%v)", x, y, w, h, ok)
	}
	if idx := b.CharacterIndexForPoint(12, 22); idx != 3 {
		t.Fatalf("index = %d, want 3", idx)
	}
}
