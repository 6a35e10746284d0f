package web

import (
	"embed"
	"html/template"
)

//go:embed assets
var Assets embed.FS

type chipView struct {
	ID     string
	Label  string
	Active bool
}

type pageData struct {
	URL            string
	Resolutions    []string
	Resolution     string
	Chips          []chipView
	StatusClass    string
	StatusHTML     template.HTML
	TriggerEnabled bool
	OpenURL        string
	Year           int
}

var pageTemplate = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>clipdrop - video downloader</title>
    <link rel="stylesheet" href="/assets/css/clipdrop.css">
</head>
<body>
<main>
    <h1>clipdrop</h1>
    <form id="download-form" method="POST" action="/">
        <label for="video-url">Video URL</label>
        <input id="video-url" name="videoUrl" type="text" autocomplete="off"
               placeholder="https://www.youtube.com/watch?v=..." value="{{.URL}}">

        <label for="resolution">Resolution</label>
        <select id="resolution" name="resolution">
            {{- range .Resolutions}}
            <option value="{{.}}"{{if eq . $.Resolution}} selected{{end}}>{{.}}</option>
            {{- end}}
        </select>

        <div class="platforms">
            {{- range .Chips}}
            <span class="platform-chip{{if .Active}} active{{end}}" data-platform="{{.ID}}">{{.Label}}</span>
            {{- end}}
        </div>

        <button id="download-button" type="submit"{{if not .TriggerEnabled}} disabled{{end}}>Download</button>
    </form>
    <div id="status" class="{{.StatusClass}}">{{.StatusHTML}}</div>
</main>
<footer>&copy; <span id="year">{{.Year}}</span> clipdrop</footer>
<script src="/assets/js/form.js"></script>
{{- if .OpenURL}}
<script>window.open({{.OpenURL}}, "_blank");</script>
{{- end}}
</body>
</html>
`
