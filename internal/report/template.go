package report

// PageTemplate is the html/template source of the dashboard page. Styling
// lives in /static/dashboard.css.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/static/dashboard.css">
</head>
<body>
<header class="header">
  <h1>Company Dashboard</h1>
  <form class="controls" method="get" action="/">
    <label>Ticker <input type="text" name="ticker" value="{{.Ticker}}" placeholder="AAPL" required></label>
    <label>Range
      <select name="range">
        {{- range .Ranges}}
        <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{- end}}
      </select>
    </label>
    <fieldset class="toggle">
      {{- range .Views}}
      <label><input type="radio" name="view" value="{{.Value}}"{{if .Selected}} checked{{end}}> {{.Label}}</label>
      {{- end}}
    </fieldset>
    <button type="submit">Show</button>
  </form>
</header>

{{if .Error}}
<div class="error" role="alert">{{.Error}}</div>
{{else if .Metrics}}
<section class="company">
  <h2><span class="ticker-badge">{{.Ticker}}</span>{{.Company}}</h2>
  <p class="muted">Last close {{.AsOf}}{{if .Currency}} · {{.Currency}}{{end}}{{if .Source}} · data: {{.Source}}{{end}}</p>
</section>

{{range .Warnings}}<div class="warning">{{.}}</div>
{{end}}

<section class="chart">{{.Chart}}</section>

<section>
  <h2>Key Metrics</h2>
  <div class="metric-grid">
    {{- range .Metrics}}
    <div class="metric"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>
    {{- end}}
  </div>
  <h3>Valuation Multiples</h3>
  <div class="metric-grid">
    {{- range .Multiples}}
    <div class="metric"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>
    {{- end}}
  </div>
</section>

{{with .Overview}}
<section>
  <h2>{{.Title}}</h2>
  <table class="overview">
    <thead><tr><th></th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>
    {{- range .Rows}}
    <tr><th scope="row">{{.Label}}</th>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
    {{- end}}
    </tbody>
  </table>
</section>
{{end}}

<section>
  <details class="statements">
    <summary>Show Detailed Financial Statements</summary>
    {{- range .Details}}
    <h3>{{.Title}}</h3>
    {{- if .Rows}}
    <table class="statement">
      <thead><tr><th></th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
      <tbody>
      {{- range .Rows}}
      <tr><th scope="row">{{.Label}}</th>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
      {{- end}}
      </tbody>
    </table>
    {{- else}}
    <p class="muted">Not available.</p>
    {{- end}}
    {{- end}}
  </details>
</section>

{{if .Headlines}}
<section class="headlines">
  <h2>Recent Headlines</h2>
  <ul>
    {{- range .Headlines}}
    <li><a href="{{.URL}}" rel="noopener" target="_blank">{{.Title}}</a>{{with date .PublishedAt}} <span class="muted">{{.}}</span>{{end}}</li>
    {{- end}}
  </ul>
</section>
{{end}}

{{if .ExportURL}}
<section class="export">
  <a class="button" href="{{.ExportURL}}">Export to Excel</a>
</section>
{{end}}
{{end}}

<section class="methodology">
  <details>
    <summary>Methodology</summary>
    {{.Methodology}}
  </details>
</section>

<footer class="muted">Generated {{.GeneratedAt}}. Figures as reported by the data provider.</footer>
</body>
</html>
`
