package scenario

import "time"

func init() {
	RegisterBuiltins()
}

// RegisterBuiltins registers the six verification flows shipped with pagecheck.
func RegisterBuiltins() {
	Register("features", Features)
	Register("hero", Hero)
	Register("redirect", Redirect)
	Register("chat", Chat)
	Register("assessment", Assessment)
	Register("roadmap", Roadmap)
}

// Features captures the "Strategic Alignment Made Easy" section of the landing page.
func Features() *Scenario {
	return &Scenario{
		Name:          "features",
		Description:   "landing page features section",
		WaitForServer: true,
		Steps: []Step{
			Navigate("/", WaitNetworkIdle),
			ElementShot("features_screenshot.png", TagText("section", "Strategic Alignment Made Easy")),
		},
	}
}

// Hero captures the full landing page once the hero heading is visible.
func Hero() *Scenario {
	return &Scenario{
		Name:        "hero",
		Description: "landing page hero heading",
		Viewport:    &Viewport{Width: 1280, Height: 800},
		Steps: []Step{
			Navigate("/", WaitLoad),
			WaitVisible(TagText("h1", "Master Your Product Strategy.")),
			PageShot("verification/hero_screenshot.png", true),
		},
	}
}

// Redirect records where an unauthenticated visit to /admin ends up.
func Redirect() *Scenario {
	return &Scenario{
		Name:        "redirect",
		Description: "unauthenticated /admin visit",
		Steps: []Step{
			Navigate("/admin", WaitLoad).WithNote("Navigating to /admin..."),
			Settle(3 * time.Second),
			PageShot("verification/redirect.png", false),
		},
	}
}

// Chat opens the assessment chat with its backend calls answered by mocks.
func Chat() *Scenario {
	return &Scenario{
		Name:        "chat",
		Description: "assessment chat with mocked API",
		Mocks: []MockRoute{
			{
				Pattern:     "**/api/assessment",
				Status:      200,
				ContentType: "application/json",
				Body:        `{"currentQuestionIndex": 1, "answers": {"q1": "My Company"}}`,
			},
			{
				Pattern: "**/api/chat",
				Status:  200,
				Body:    "Chat response mocked",
			},
		},
		Steps: []Step{
			Navigate("/dashboard/assessment", WaitLoad),
			Settle(3 * time.Second),
			PageShot("verification/verification.png", false),
		},
	}
}

// Assessment answers the first assessment question, or records the sign-in
// page when the dashboard requires authentication.
func Assessment() *Scenario {
	return &Scenario{
		Name:              "assessment",
		Description:       "assessment chat interaction",
		SignInMarker:      "sign-in",
		SignInScreenshot:  "verification/redirect_login.png",
		FailureScreenshot: "verification/auth_block.png",
		Steps: []Step{
			Navigate("/dashboard/assessment", WaitLoad),
			WaitVisible(Placeholder("Type your answer...")).WithTimeout(10 * time.Second),
			Fill(Placeholder("Type your answer..."), "My Company Name"),
			Click(LastOf("button")),
			Settle(2 * time.Second),
			PageShot("verification/chat_interaction.png", false),
		},
	}
}

// Roadmap adds a feature through the roadmap modal and captures the modal
// and the resulting table.
func Roadmap() *Scenario {
	tagInput := CSS("input[placeholder='Type and press Enter to add tags']")
	return &Scenario{
		Name:              "roadmap",
		Description:       "roadmap add-feature modal",
		FailureScreenshot: "verification/error.png",
		Steps: []Step{
			Navigate("/dashboard/roadmap", WaitLoad),
			WaitVisible(TagText("h1", "Feature Roadmap")),
			Click(TagText("button", "Add Feature")),
			WaitVisible(Text("Add New Feature")),
			Fill(CSS("input[placeholder='e.g. Dark Mode']"), "Test Feature"),
			Fill(CSS("textarea[placeholder='Describe the feature...']"), "This is a test feature description."),
			Fill(tagInput, "Frontend"),
			Press(tagInput, "Enter"),
			PageShot("verification/roadmap_modal.png", false),
			Click(TagText("button", "Create Feature")),
			Settle(2 * time.Second),
			PageShot("verification/roadmap_table.png", false),
		},
	}
}
