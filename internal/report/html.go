package report

import (
	"html/template"
	"io"

	"github.com/mind-engage/exam-simulator/internal/exam"
)

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"elapsed": exam.FormatElapsed,
	"summary": Summary,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Set}} results</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ccc;padding:.4rem .6rem;text-align:left;vertical-align:top}
th{background:#f3f3f3}
tr.ok td.answer{color:#1a7f37}
tr.miss td.answer{color:#cf222e}
</style>
</head>
<body>
<h1>{{.Set}}</h1>
<p>Mode: {{.Mode}} &middot; Time: {{elapsed .Elapsed}}</p>
<table>
<thead><tr><th>#</th><th>Question</th><th>Your answer</th><th>Correct answer</th><th>Explanation</th></tr></thead>
<tbody>
{{- range .Items}}
<tr class="{{if .Correct}}ok{{else}}miss{{end}}"><td>{{.Number}}</td><td>{{.Question}}</td><td class="answer">{{.UserAnswer}}</td><td>{{.CorrectAnswer}}</td><td>{{.Explanation}}</td></tr>
{{- end}}
</tbody>
</table>
<p><strong>Overall Score:</strong> {{summary .}}</p>
</body>
</html>
`))

func HTML(w io.Writer, r exam.Report) error {
	return htmlTmpl.Execute(w, r)
}
