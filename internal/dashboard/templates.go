package dashboard

const priceRangeTmpl = `<div class="market-item market-price">` +
	`<span class="market-label">Marknadsvärde</span>` +
	`<span class="market-value">{{price .Range.Low}}–{{price .Range.High}} {{.Range.Currency}}</span>` +
	`<span class="market-confidence confidence-{{.Label}}" title="Baserat på {{.Sold}} försäljningar">{{.Percent}}% säkerhet</span>` +
	`{{if .Median}}<span class="market-median">Median {{price .Median}} {{.Range.Currency}}</span>{{end}}` +
	`</div>`

const trendTmpl = `<div class="market-item market-trend trend-{{.Direction}}">` +
	`<span class="market-label">Trend</span>` +
	`<span class="market-value">{{arrow .Direction}} {{.Description}}</span>` +
	`</div>`

const dataSourcesTmpl = `<div class="market-item market-sources">` +
	`<span class="market-label">Källor</span>` +
	`<ul class="market-source-list">` +
	`{{range .}}<li><a href="{{.URL}}" target="_blank" rel="noopener">{{.Label}}</a> <span class="market-count">({{price .Count}})</span></li>{{end}}` +
	`</ul></div>`

const exceptionalTmpl = `<div class="market-item market-exceptional">` +
	`<span class="market-label">Exceptionella försäljningar</span>` +
	`<ul class="market-exceptional-list">` +
	`{{range .}}<li><a href="{{.URL}}" target="_blank" rel="noopener">{{.Title}}</a>` +
	` <span class="market-price">{{price .Price}} {{.Currency}}</span>` +
	`{{if not .SoldAt.IsZero}} <span class="market-date">{{date .SoldAt}}</span>{{end}}</li>{{end}}` +
	`</ul></div>`

const pillsTmpl = `<div class="search-terms" data-query="{{.Query}}" data-version="{{.Version}}">` +
	`{{range .Terms}}<label class="term-pill{{if .Selected}} selected{{end}}{{if .Core}} core{{end}}" data-type="{{.Type}}" data-priority="{{.Priority}}"{{if .Description}} title="{{.Description}}"{{end}}>` +
	`<input type="checkbox" class="term-checkbox" value="{{.Term}}"{{if .Selected}} checked{{end}}> {{.Term}}</label>{{end}}` +
	`</div>`
