package inspect

import (
	"reflect"
	"testing"
)

const page = `<h1>Runbook</h1>
<p>Owner <ac:link><ri:user ri:account-id="557058:aaaa"></ri:user></ac:link> and <ac:link><ri:user ri:account-id="557058:aaaa"></ri:user></ac:link></p>
<ac:structured-macro ac:name="info"><ac:rich-text-body><p>Read <a href="https://example.com/docs">the docs</a></p></ac:rich-text-body></ac:structured-macro>
<ac:structured-macro ac:name="code"><ac:parameter ac:name="language">go</ac:parameter><ac:plain-text-body>fmt.Println(1)</ac:plain-text-body></ac:structured-macro>
<ac:structured-macro ac:name="code"><ac:plain-text-body>x := 2</ac:plain-text-body></ac:structured-macro>
<ac:structured-macro ac:name="roadmap"></ac:structured-macro>
<table><tr><td><table><tr><td>inner</td></tr></table></td></tr></table>
<ac:image><ri:attachment ri:filename="diagram.png"></ri:attachment></ac:image>
<p><ac:link><ri:page ri:content-title="Release Notes"></ri:page></ac:link> <a href="/relative">rel</a></p>`

func TestInspect(t *testing.T) {
	inv, err := Inspect(page)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	wantMacros := []MacroCount{
		{Name: "code", Count: 2, Supported: true},
		{Name: "info", Count: 1, Supported: true},
		{Name: "roadmap", Count: 1, Supported: false},
	}
	if !reflect.DeepEqual(inv.Macros, wantMacros) {
		t.Errorf("Expected macros %+v, got %+v", wantMacros, inv.Macros)
	}
	if got := inv.Unsupported(); len(got) != 1 || got[0] != "roadmap" {
		t.Errorf("Expected roadmap unsupported, got %v", got)
	}

	if inv.Tables != 2 {
		t.Errorf("Expected 2 tables, got %d", inv.Tables)
	}
	if inv.NestedTables != 1 {
		t.Errorf("Expected 1 nested table, got %d", inv.NestedTables)
	}
	if !reflect.DeepEqual(inv.Users, []string{"557058:aaaa"}) {
		t.Errorf("Expected one unique user, got %v", inv.Users)
	}
	if !reflect.DeepEqual(inv.Attachments, []string{"diagram.png"}) {
		t.Errorf("Expected diagram.png, got %v", inv.Attachments)
	}
	if !reflect.DeepEqual(inv.Pages, []string{"Release Notes"}) {
		t.Errorf("Expected Release Notes, got %v", inv.Pages)
	}
	if !reflect.DeepEqual(inv.Links, []string{"https://example.com/docs"}) {
		t.Errorf("Expected one external link, got %v", inv.Links)
	}
	if inv.Images != 1 {
		t.Errorf("Expected 1 image, got %d", inv.Images)
	}
	if inv.Words == 0 {
		t.Error("Expected words to be counted")
	}
}

func TestInspectEmpty(t *testing.T) {
	inv, err := Inspect("")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if len(inv.Macros) != 0 || inv.Tables != 0 || inv.Words != 0 {
		t.Errorf("Expected empty inventory, got %+v", inv)
	}
}
