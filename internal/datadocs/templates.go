package datadocs

import "html/template"

const pageStyle = `
body { font-family: -apple-system, 'Segoe UI', Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 60rem; color: #222; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #ddd; padding: 0.5rem 0.75rem; text-align: left; }
th { background: #f5f5f5; }
.pass { color: #1a7f37; font-weight: bold; }
.fail { color: #cf222e; font-weight: bold; }
.meta { color: #666; font-size: 0.9rem; }
`

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>tablevet Data Docs</title>
<style>` + pageStyle + `</style>
</head>
<body>
<h1>Validation Runs</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
{{if .Runs}}
<table>
<tr><th>Status</th><th>Checkpoint</th><th>Table</th><th>Expectations</th><th>Started</th><th>Run</th></tr>
{{range .Runs}}
<tr>
<td>{{if .Success}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td>
<td>{{.Checkpoint}}</td>
<td>{{.Table}}</td>
<td>{{.Evaluated}} evaluated, {{.Failed}} failed</td>
<td>{{.StartedAt.Format "2006-01-02 15:04:05"}}</td>
<td><a href="runs/{{.RunID}}.html">{{.RunID}}</a></td>
</tr>
{{end}}
</table>
{{else}}
<p>No validation runs recorded yet.</p>
{{end}}
</body>
</html>
`))

var runTemplate = template.Must(template.New("run").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Checkpoint}} — {{.RunID}}</title>
<style>` + pageStyle + `</style>
</head>
<body>
<p class="meta"><a href="../index.html">&larr; All runs</a></p>
<h1>{{.Checkpoint}} {{if .Success}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</h1>
<p class="meta">
Run {{.RunID}}<br>
Suite {{.Suite}} against {{.Datasource}}.{{.Table}}<br>
Started {{.StartedAt.Format "2006-01-02 15:04:05 MST"}}, took {{.Duration}}<br>
{{.Statistics.Successful}}/{{.Statistics.Evaluated}} expectations met ({{printf "%.1f" .Statistics.SuccessPercent}}%)
</p>
<table>
<tr><th>Status</th><th>Expectation</th><th>Observed</th><th>Unexpected %</th></tr>
{{range .Rows}}
<tr>
<td>{{if .Success}}<span class="pass">&#10003;</span>{{else}}<span class="fail">&#10007;</span>{{end}}</td>
<td>{{.Description}}</td>
<td>{{.Observed}}</td>
<td>{{printf "%.2f" .UnexpectedPercent}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))
