package pages

// shellTemplate wraps a page's content with the sidebar.
const shellTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="/static/sidebar.css">
</head>
<body data-theme="{{.Theme}}"{{if .Collapsed}} class="sidebar-collapsed"{{end}}>
  <nav id="sidebar">{{.Sidebar}}</nav>
  <main class="page">
{{- if .UserEmail}}
    <form class="user-bar" method="post" action="/logout"><span>{{.UserEmail}}</span> <button type="submit">Sign out</button></form>
{{- end}}
{{- if .Notice}}
    <p class="notice">{{.Notice}}</p>
{{- end}}
    {{.Content}}
  </main>
  <script src="/static/sidebar.js"></script>
</body>
</html>
`
