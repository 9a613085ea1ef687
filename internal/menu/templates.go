package menu

// sidebarTemplate is the html/template for the navigation panel.
const sidebarTemplate = `<div class="sidebar" data-theme="{{.Theme}}" data-collapsed="{{.Collapsed}}" data-open-index="{{.OpenIndex}}">
  <div class="menu-header">
    <button id="toggle-btn" type="button" aria-label="Toggle sidebar">{{.Labels.Toggle}}</button>
    <a class="menu-logo" href="{{.HomePath}}">{{.Labels.Logo}}</a>
    <button id="theme-toggle" type="button" aria-label="Toggle theme">{{.ThemeIcon}}</button>
  </div>
  <div class="menu-search">
    <input type="text" id="search-box" placeholder="{{.Labels.SearchPlaceholder}}" value="{{.Query}}" autocomplete="off">
  </div>
{{- range .Sections}}
  <div class="menu-section">
    <div class="menu-title" data-index="{{.Index}}">{{.Title}}</div>
    <ul class="submenu{{if .Open}} open{{end}}">
{{- range .Items}}
      <li{{if .Hidden}} hidden{{end}}><a href="{{.URL}}"{{if .Active}} class="active"{{end}}>{{.Name}}</a></li>
{{- end}}
    </ul>
  </div>
{{- end}}
</div>
<button id="float-toggle" type="button" aria-label="Toggle sidebar">{{.Labels.Float}}</button>
`

// cssContent is the sidebar stylesheet.
const cssContent = `:root {
  --sb-bg: #f1f3f5;
  --sb-text: #212529;
  --sb-muted: #868e96;
  --sb-accent: #228be6;
  --sb-border: #dee2e6;
  --sb-width: 240px;
}

[data-theme="dark"] {
  --sb-bg: #16171f;
  --sb-text: #c0caf5;
  --sb-muted: #565f89;
  --sb-accent: #7aa2f7;
  --sb-border: #292e42;
}

body { margin: 0; background: var(--sb-bg); color: var(--sb-text); }
#sidebar { position: fixed; top: 0; left: 0; bottom: 0; width: var(--sb-width); overflow-x: hidden; overflow-y: auto; border-right: 1px solid var(--sb-border); transition: width 0.2s; }
body.sidebar-collapsed #sidebar { width: 0; border-right: none; }
.page { margin-left: var(--sb-width); padding: 1.5rem 2rem; transition: margin 0.2s; }
body.sidebar-collapsed .page { margin-left: 0; }
.menu-header { display: flex; align-items: center; gap: 0.5rem; padding: 0.75rem; }
.menu-header button { background: none; border: none; color: inherit; cursor: pointer; font-size: 1.1rem; }
.menu-logo { flex: 1; font-weight: 600; color: inherit; text-decoration: none; }
.menu-search { padding: 0 0.75rem 0.75rem; }
.menu-search input { width: 100%; box-sizing: border-box; padding: 0.4rem; border: 1px solid var(--sb-border); border-radius: 4px; background: transparent; color: inherit; }
.menu-title { padding: 0.5rem 0.75rem; cursor: pointer; font-weight: 600; }
.submenu { display: none; list-style: none; margin: 0; padding: 0 0 0.5rem 1rem; }
.submenu.open { display: block; }
.submenu li[hidden] { display: none; }
.submenu a { display: block; padding: 0.25rem 0.5rem; color: var(--sb-muted); text-decoration: none; }
.submenu a.active { color: var(--sb-accent); font-weight: 600; }
#float-toggle { position: fixed; bottom: 1rem; left: 1rem; z-index: 10; border-radius: 50%; width: 2.5rem; height: 2.5rem; border: 1px solid var(--sb-border); background: var(--sb-bg); color: inherit; cursor: pointer; }
`

// jsContent wires the sidebar behaviours in the browser. Persisted state
// (open section, theme) round-trips through the server.
const jsContent = `(function () {
  "use strict";

  function post(url) {
    return fetch(url, { method: "POST", credentials: "same-origin" }).then(function (r) {
      if (!r.ok) { throw new Error("request failed: " + r.status); }
      return r.json();
    });
  }

  function attach(root) {
    var sidebar = root.querySelector(".sidebar");
    if (!sidebar) { return; }
    var body = document.body;

    body.setAttribute("data-theme", sidebar.dataset.theme || "light");
    body.classList.toggle("sidebar-collapsed", sidebar.dataset.collapsed === "true");

    // Accordion.
    root.querySelectorAll(".menu-title").forEach(function (title) {
      title.addEventListener("click", function () {
        post("/api/ui/menu/" + title.dataset.index + "?path=" + encodeURIComponent(window.location.pathname)).then(function (res) {
          root.querySelectorAll(".submenu").forEach(function (ul) { ul.classList.remove("open"); });
          if (res.openIndex >= 0) {
            var open = root.querySelector('.menu-title[data-index="' + res.openIndex + '"]');
            if (open) { open.nextElementSibling.classList.add("open"); }
          }
        }).catch(function () {});
      });
    });

    // Collapse.
    function toggleCollapsed() { body.classList.toggle("sidebar-collapsed"); }
    var toggleBtn = root.querySelector("#toggle-btn");
    if (toggleBtn) { toggleBtn.addEventListener("click", toggleCollapsed); }
    var floatBtn = document.getElementById("float-toggle");
    if (floatBtn) { floatBtn.addEventListener("click", toggleCollapsed); }

    // Search.
    var searchBox = root.querySelector("#search-box");
    if (searchBox) {
      searchBox.addEventListener("input", function (e) {
        var keyword = e.target.value.toLowerCase();
        root.querySelectorAll(".submenu li").forEach(function (li) {
          li.hidden = li.textContent.toLowerCase().indexOf(keyword) === -1;
        });
      });
    }

    // Theme.
    var themeBtn = root.querySelector("#theme-toggle");
    if (themeBtn) {
      themeBtn.addEventListener("click", function () {
        post("/api/ui/theme").then(function (res) {
          body.setAttribute("data-theme", res.theme);
          themeBtn.textContent = res.icon;
        }).catch(function () {});
      });
    }
  }

  document.addEventListener("DOMContentLoaded", function () {
    var root = document.getElementById("sidebar");
    if (!root) { return; }
    if (root.children.length > 0) {
      attach(root);
      return;
    }
    fetch("/sidebar?path=" + encodeURIComponent(window.location.pathname), { credentials: "same-origin" })
      .then(function (r) { return r.text(); })
      .then(function (html) { root.innerHTML = html; attach(root); })
      .catch(function () {});
  });
})();
`
