package dom

import (
	"strings"
	"testing"
)

func TestParseNamespacedTags(t *testing.T) {
	tree, err := Parse(`<p>Hi <ac:link><ri:user ri:account-id="abc"/></ac:link> there</p>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	link := tree.Find(tree.Root(), "ac:link")
	if link == None {
		t.Fatal("Expected ac:link element")
	}
	user := tree.Find(link, "ri:user")
	if user == None {
		t.Fatal("Expected ri:user inside ac:link")
	}
	if got, _ := tree.Attr(user, "ri:account-id"); got != "abc" {
		t.Errorf("Expected account id abc, got %q", got)
	}

	// The self-closing ri:user must not swallow the trailing text.
	if got := tree.Text(link); got != "" {
		t.Errorf("Expected empty link text, got %q", got)
	}
	p := tree.Find(tree.Root(), "p")
	if got := tree.Text(p); got != "Hi  there" {
		t.Errorf("Expected paragraph text %q, got %q", "Hi  there", got)
	}
}

func TestParseSelfClosingTime(t *testing.T) {
	tree, err := Parse(`<p>Due <time datetime="2024-05-01" /> sharp</p>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tm := tree.Find(tree.Root(), "time")
	if len(tree.Children(tm)) != 0 {
		t.Errorf("Expected empty time element, got %d children", len(tree.Children(tm)))
	}
}

func TestParseCDATA(t *testing.T) {
	markup := `<ac:structured-macro ac:name="code"><ac:plain-text-body><![CDATA[if a > b && c < d {
}]]></ac:plain-text-body></ac:structured-macro>`
	tree, err := Parse(markup)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	body := tree.Find(tree.Root(), "ac:plain-text-body")
	want := "if a > b && c < d {\n}"
	if got := tree.Text(body); got != want {
		t.Errorf("Expected CDATA text %q, got %q", want, got)
	}
}

func TestReplaceSplicesInOrder(t *testing.T) {
	tree, err := Parse(`<div><span>a</span><b>b</b><span>c</span></div>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	b := tree.Find(tree.Root(), "b")
	parts, err := tree.ParseFragment(`<i>x</i>y<!-- z -->`)
	if err != nil {
		t.Fatalf("ParseFragment failed: %v", err)
	}
	if err := tree.Replace(b, parts...); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if tree.Attached(b) {
		t.Error("Expected replaced node to be detached")
	}
	div := tree.Find(tree.Root(), "div")
	if got := tree.Markdown(div); got != "axy<!-- z -->c" {
		t.Errorf("Unexpected content after replace: %q", got)
	}
	if err := tree.Replace(b); err != ErrDetached {
		t.Errorf("Expected ErrDetached for detached node, got %v", err)
	}
}

func TestWithinAndDepth(t *testing.T) {
	tree, err := Parse(`<div><p><b>x</b></p></div>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	div := tree.Find(tree.Root(), "div")
	b := tree.Find(tree.Root(), "b")

	if got := tree.Depth(b, div); got != 1 {
		t.Errorf("Expected depth 1, got %d", got)
	}
	if !tree.Within(b, div) {
		t.Error("Expected b to be within div")
	}

	p := tree.Find(div, "p")
	if err := tree.Remove(p); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if tree.Within(b, div) || tree.Attached(b) {
		t.Error("Expected b to be unreachable after removing its parent")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tree, err := Parse(`<table><tr><td>1</td></tr></table>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	table := tree.Find(tree.Root(), "table")
	clone := tree.Clone(table)

	td := tree.Find(clone, "td")
	if err := tree.ReplaceWithText(td, "changed"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if got := tree.Text(table); got != "1" {
		t.Errorf("Original table changed: %q", got)
	}
	if tree.Attached(clone) {
		t.Error("Expected clone to be detached")
	}
}

func TestOuterHTMLRoundTrip(t *testing.T) {
	tree, err := Parse(`<p class="x">a &amp; b<br/></p>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	p := tree.Find(tree.Root(), "p")
	got := tree.OuterHTML(p)
	if got != `<p class="x">a &amp; b<br/></p>` {
		t.Errorf("Unexpected markup: %q", got)
	}
}

func TestParseTooDeep(t *testing.T) {
	markup := strings.Repeat("<div>", maxDepth+10) + "x"
	if _, err := Parse(markup); err == nil {
		t.Error("Expected an error for excessive nesting")
	}
}

func TestTextSep(t *testing.T) {
	tree, err := Parse(`<th>Name<br/>first</th>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// th outside a table is dropped by the parser; its text survives.
	if got := tree.TextSep(tree.Root(), " "); got != "Name first" {
		t.Errorf("Expected %q, got %q", "Name first", got)
	}
}
