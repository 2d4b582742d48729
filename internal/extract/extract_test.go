package extract

import (
	"strings"
	"testing"
)

func TestFromHTML_PrefersMainOverBody(t *testing.T) {
	html := `<!doctype html>
	<html>
	  <head><title>Team Stats</title></head>
	  <body>
	    <nav>Scores Schedule Standings</nav>
	    <main>
	      <h1>Pittsburgh Steelers Stats</h1>
	      <p>Regular season passing leaders.</p>
	    </main>
	    <footer>Terms of use</footer>
	  </body>
	</html>`

	doc := FromHTML([]byte(html))
	if doc.Title != "Team Stats" {
		t.Fatalf("expected title 'Team Stats', got %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Pittsburgh Steelers Stats") {
		t.Fatalf("expected heading in text; got %q", doc.Text)
	}
	if strings.Contains(doc.Text, "Standings") || strings.Contains(doc.Text, "Terms of use") {
		t.Fatalf("did not expect nav/footer text; got %q", doc.Text)
	}
}

func TestFromHTML_TableRowsBecomeLines(t *testing.T) {
	html := `<html><body>
	<table>
	  <tr><th>Name</th><th>YDS</th></tr>
	  <tr><td>Russell  Wilson</td><td>1,210</td></tr>
	  <tr><td>Justin Fields</td><td>289</td></tr>
	</table>
	</body></html>`

	doc := FromHTML([]byte(html))
	lines := strings.Split(doc.Text, "\n")
	want := []string{"Name\tYDS", "Russell Wilson\t1,210", "Justin Fields\t289"}
	for _, w := range want {
		found := false
		for _, l := range lines {
			if l == w {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected line %q in %q", w, doc.Text)
		}
	}
}

func TestFromHTML_SkipsConsentBanner(t *testing.T) {
	html := `<html><body><div class="cookie-banner">Accept cookies</div><p>Body text</p></body></html>`
	doc := FromHTML([]byte(html))
	if strings.Contains(doc.Text, "Accept cookies") {
		t.Fatalf("consent banner leaked into text: %q", doc.Text)
	}
	if doc.Text != "Body text" {
		t.Fatalf("unexpected text %q", doc.Text)
	}
}
