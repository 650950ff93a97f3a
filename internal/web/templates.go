package web

import (
	"html/template"
	"io"

	"github.com/marchford/receipt-relay/internal/receipt"
)

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "layout_head"}}<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Receipt Relay</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
pre { background: #f5f5f5; padding: 1rem; border-radius: 8px; white-space: pre-wrap; }
.error { color: #b00020; }
textarea, input[type=text], input[type=password] { width: 100%; box-sizing: border-box; padding: 0.5rem; }
button { padding: 0.5rem 1.5rem; margin-top: 0.5rem; }
</style>
</head>
<body>{{end}}

{{define "password"}}{{template "layout_head" .}}
<h1>Receipt Relay</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/auth">
<label>Password <input type="password" name="password" autofocus></label>
<button type="submit">Log in</button>
</form>
</body></html>{{end}}

{{define "upload"}}{{template "layout_head" .}}
<h1>Upload a receipt</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/upload" enctype="multipart/form-data">
<p><input type="file" name="images" accept="image/*" multiple></p>
<p><label>Or paste receipt text<br><textarea name="receiptText" rows="6"></textarea></label></p>
<p><label>Instructions (optional)<br><textarea name="instructions" rows="2"></textarea></label></p>
<button type="submit">Process</button>
</form>
</body></html>{{end}}

{{define "review"}}{{template "layout_head" .}}
<h1>Review</h1>
<pre>{{.Breakdown}}</pre>
<form method="post" action="/upload/confirm">
<input type="hidden" name="receipt" value="{{.ReceiptJSON}}">
<button type="submit">Looks good, send it</button>
</form>
<h2>Corrections</h2>
<form method="post" action="/upload/reprocess">
<textarea name="corrections" rows="3" placeholder="e.g. the milk is for the baby"></textarea>
<input type="hidden" name="previousInstructions" value="{{.Instructions}}">
<input type="hidden" name="receiptText" value="{{.ReceiptText}}">
<input type="hidden" name="imageCount" value="{{len .EncodedImages}}">
{{range $i, $img := .EncodedImages}}<input type="hidden" name="imageData{{$i}}" value="{{$img}}">
{{end}}<button type="submit">Reprocess</button>
</form>
</body></html>{{end}}

{{define "done"}}{{template "layout_head" .}}
<h1>Done!</h1>
<p>Sent the breakdown to the budget.</p>
<pre>{{.Summary}}</pre>
<p><a href="/upload">Upload another</a></p>
</body></html>{{end}}

{{define "error"}}{{template "layout_head" .}}
<h1>Something went wrong</h1>
<p class="error">{{.Error}}</p>
<p><a href="/upload">Try again</a></p>
</body></html>{{end}}
`))

type pageData struct {
	Error         string
	Breakdown     string
	Summary       string
	ReceiptJSON   string
	Instructions  string
	ReceiptText   string
	EncodedImages []string
}

func renderPage(w io.Writer, name string, data pageData) error {
	return pageTemplates.ExecuteTemplate(w, name, data)
}

// reviewBreakdown renders the confirmation text for the review screen,
// appending per-category out-of-pocket amounts when a credit is present.
func reviewBreakdown(r *receipt.ParsedReceipt) string {
	text := receipt.FormatConfirmationMessage(r)
	if !r.HasCredit() {
		return text
	}

	adjustments := receipt.DistributeCredit(r.Categories, r.Credit)
	text += "\n\nOut of pocket by category:"
	for _, key := range receipt.SortedKeys(r.Categories) {
		adj, ok := adjustments[key]
		if !ok {
			continue
		}
		text += "\n" + receipt.CategoryLabel(key) + ": " + receipt.FormatMoney(adj.OutOfPocket)
	}
	return text
}
