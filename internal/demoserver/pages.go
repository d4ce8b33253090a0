package demoserver

import "html/template"

// PageDefinition is one HTML page of the demo application.
type PageDefinition struct {
	Path  string
	Title string
	// Description is served as the page's meta description.
	Description string
	// Protected pages require a session when Config.RequireAuth is set.
	Protected bool
	body      string
}

// pageData is what every page template renders with.
type pageData struct {
	Title       string
	Description string
	RedirectURL string
	SignedIn    bool
}

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		homePage(),
		signInPage(),
		assessmentPage(),
		roadmapPage(),
	}
}

func parsePages(pages []PageDefinition) map[string]*template.Template {
	base := template.Must(template.New("layout").Parse(layoutHTML))
	out := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		t := template.Must(template.Must(base.Clone()).Parse(p.body))
		out[p.Path] = t
	}
	return out
}

const layoutHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>{{.Title}} | Product Strategy</title>
    <meta name="description" content="{{.Description}}">
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; margin: 0; color: #1f2937; background: #f9fafb; }
        header.top { display: flex; justify-content: space-between; padding: 16px 32px; background: #111827; color: white; }
        header.top a { color: #e5e7eb; margin-left: 16px; text-decoration: none; }
        main { max-width: 1100px; margin: 0 auto; padding: 32px; }
        .hero { padding: 96px 0 64px; text-align: center; }
        .hero h1 { font-size: 3em; margin: 0 0 16px; }
        .features { display: grid; grid-template-columns: repeat(3, 1fr); gap: 24px; background: white; padding: 32px; border-radius: 12px; }
        .features h2 { grid-column: 1 / -1; margin: 0; }
        .card { background: white; border-radius: 12px; padding: 24px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
        .chat-log { min-height: 240px; display: flex; flex-direction: column; gap: 8px; margin-bottom: 16px; }
        .bubble { padding: 10px 14px; border-radius: 12px; max-width: 70%; }
        .bubble.bot { background: #e5e7eb; align-self: flex-start; }
        .bubble.user { background: #2563eb; color: white; align-self: flex-end; }
        .composer { display: flex; gap: 8px; }
        .composer input { flex: 1; padding: 10px; }
        table { width: 100%; border-collapse: collapse; background: white; }
        th, td { padding: 10px; border-bottom: 1px solid #e5e7eb; text-align: left; }
        .modal-backdrop { position: fixed; inset: 0; background: rgba(0,0,0,0.4); display: none; align-items: center; justify-content: center; }
        .modal-backdrop.open { display: flex; }
        .modal { background: white; border-radius: 12px; padding: 24px; width: 480px; display: flex; flex-direction: column; gap: 12px; }
        .tag { display: inline-block; background: #dbeafe; color: #1e40af; border-radius: 999px; padding: 2px 10px; margin-right: 4px; }
        button { padding: 10px 16px; border: none; border-radius: 6px; background: #2563eb; color: white; cursor: pointer; }
        button.secondary { background: #e5e7eb; color: #111827; }
    </style>
</head>
<body>
    <header class="top">
        <strong>Product Strategy</strong>
        <nav>
            <a href="/">Home</a>
            <a href="/dashboard/assessment">Assessment</a>
            <a href="/dashboard/roadmap">Roadmap</a>
            {{if not .SignedIn}}<a href="/sign-in">Sign in</a>{{end}}
        </nav>
    </header>
    <main>
{{template "body" .}}
    </main>
</body>
</html>`

func homePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Title:       "Home",
		Description: "Landing page with hero heading and features section",
		body: `{{define "body"}}
        <section class="hero">
            <h1>Master Your Product Strategy.</h1>
            <p>Turn scattered feedback into a roadmap your whole team believes in.</p>
            <a href="/dashboard/assessment"><button>Start your assessment</button></a>
        </section>
        <section class="features" id="features">
            <h2>Strategic Alignment Made Easy</h2>
            <div class="card"><h3>Assess</h3><p>Answer a short guided interview about your product.</p></div>
            <div class="card"><h3>Prioritize</h3><p>See which bets matter most for your goals.</p></div>
            <div class="card"><h3>Plan</h3><p>Keep a living roadmap the whole team can read.</p></div>
        </section>
        <script>console.log("home ready");</script>
{{end}}`,
	}
}

func signInPage() PageDefinition {
	return PageDefinition{
		Path:        "/sign-in",
		Title:       "Sign in",
		Description: "Sign-in form; posting it starts a demo session",
		body: `{{define "body"}}
        <div class="card" style="max-width: 400px; margin: 64px auto;">
            <h1>Sign in</h1>
            <form method="POST" action="/sign-in">
                <input type="hidden" name="redirect_url" value="{{.RedirectURL}}">
                <p><input type="email" name="email" placeholder="you@example.com"></p>
                <p><input type="password" name="password" placeholder="Password"></p>
                <button type="submit">Continue</button>
            </form>
        </div>
{{end}}`,
	}
}

func assessmentPage() PageDefinition {
	return PageDefinition{
		Path:        "/dashboard/assessment",
		Title:       "Assessment",
		Description: "Chat-style assessment backed by /api/assessment and /api/chat",
		Protected:   true,
		body: `{{define "body"}}
        <div class="card">
            <h1>Strategy Assessment</h1>
            <div class="chat-log" id="chat-log"></div>
            <div class="composer">
                <input id="answer" type="text" placeholder="Type your answer...">
                <button id="send" type="button">Send</button>
            </div>
        </div>
        <script>
            const log = document.getElementById("chat-log");
            const input = document.getElementById("answer");
            function bubble(kind, text) {
                const el = document.createElement("div");
                el.className = "bubble " + kind;
                el.textContent = text;
                log.appendChild(el);
            }
            fetch("/api/assessment")
                .then(r => r.json())
                .then(state => {
                    bubble("bot", "Question " + (state.currentQuestionIndex + 1) + ": " + state.question);
                })
                .catch(err => console.error("assessment load failed", err));
            document.getElementById("send").addEventListener("click", () => {
                const text = input.value.trim();
                if (!text) { return; }
                bubble("user", text);
                input.value = "";
                fetch("/api/chat", {
                    method: "POST",
                    headers: {"Content-Type": "application/json"},
                    body: JSON.stringify({message: text})
                })
                    .then(r => r.text())
                    .then(reply => bubble("bot", reply))
                    .catch(err => console.error("chat failed", err));
            });
        </script>
{{end}}`,
	}
}

func roadmapPage() PageDefinition {
	return PageDefinition{
		Path:        "/dashboard/roadmap",
		Title:       "Roadmap",
		Description: "Feature table with an add-feature modal backed by /api/roadmap",
		Protected:   true,
		body: `{{define "body"}}
        <div style="display: flex; justify-content: space-between; align-items: center;">
            <h1>Feature Roadmap</h1>
            <button id="open-modal" type="button">Add Feature</button>
        </div>
        <table>
            <thead><tr><th>Title</th><th>Description</th><th>Tags</th></tr></thead>
            <tbody id="features"></tbody>
        </table>
        <div class="modal-backdrop" id="modal">
            <div class="modal" role="dialog">
                <h2>Add New Feature</h2>
                <input id="title" type="text" placeholder="e.g. Dark Mode">
                <textarea id="description" placeholder="Describe the feature..."></textarea>
                <div id="tags"></div>
                <input id="tag-input" type="text" placeholder="Type and press Enter to add tags">
                <div style="display: flex; justify-content: flex-end; gap: 8px;">
                    <button id="cancel" class="secondary" type="button">Cancel</button>
                    <button id="create" type="button">Create Feature</button>
                </div>
            </div>
        </div>
        <script>
            const modal = document.getElementById("modal");
            const tagInput = document.getElementById("tag-input");
            let tags = [];
            function renderTags() {
                const box = document.getElementById("tags");
                box.innerHTML = "";
                for (const t of tags) {
                    const el = document.createElement("span");
                    el.className = "tag";
                    el.textContent = t;
                    box.appendChild(el);
                }
            }
            function load() {
                fetch("/api/roadmap")
                    .then(r => r.json())
                    .then(features => {
                        const body = document.getElementById("features");
                        body.innerHTML = "";
                        for (const f of features) {
                            const row = document.createElement("tr");
                            for (const v of [f.title, f.description, (f.tags || []).join(", ")]) {
                                const td = document.createElement("td");
                                td.textContent = v;
                                row.appendChild(td);
                            }
                            body.appendChild(row);
                        }
                    })
                    .catch(err => console.error("roadmap load failed", err));
            }
            document.getElementById("open-modal").addEventListener("click", () => modal.classList.add("open"));
            document.getElementById("cancel").addEventListener("click", () => modal.classList.remove("open"));
            tagInput.addEventListener("keydown", ev => {
                if (ev.key !== "Enter") { return; }
                ev.preventDefault();
                const v = tagInput.value.trim();
                if (v && !tags.includes(v)) { tags.push(v); }
                tagInput.value = "";
                renderTags();
            });
            document.getElementById("create").addEventListener("click", () => {
                fetch("/api/roadmap", {
                    method: "POST",
                    headers: {"Content-Type": "application/json"},
                    body: JSON.stringify({
                        title: document.getElementById("title").value,
                        description: document.getElementById("description").value,
                        tags: tags
                    })
                })
                    .then(r => { if (!r.ok) { throw new Error("status " + r.status); } })
                    .then(() => {
                        modal.classList.remove("open");
                        tags = [];
                        renderTags();
                        load();
                    })
                    .catch(err => console.error("create feature failed", err));
            });
            load();
        </script>
{{end}}`,
	}
}
