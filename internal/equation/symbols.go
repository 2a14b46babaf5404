package equation

// commands that arrive double-escaped from JSON transport and are collapsed
// back to a single backslash before anything else runs.
var knownCommands = set(
	"frac", "dfrac", "tfrac", "sqrt", "sum", "int", "iint", "oint", "prod", "lim",
	"text", "mathrm", "mathbf", "operatorname", "left", "right", "cdot", "times",
	"div", "pm", "mp", "log", "ln", "sin", "cos", "tan", "begin", "end",
	"alpha", "beta", "gamma", "delta", "epsilon", "varepsilon", "zeta", "eta",
	"theta", "vartheta", "iota", "kappa", "lambda", "mu", "nu", "xi", "pi", "rho",
	"sigma", "tau", "upsilon", "phi", "varphi", "chi", "psi", "omega",
	"Gamma", "Delta", "Theta", "Lambda", "Xi", "Pi", "Sigma", "Phi", "Psi", "Omega",
	"infty", "leq", "geq", "neq", "approx", "rightarrow", "leftarrow", "degree",
	"nabla", "neg", "not", "ni", "nmid", "ne",
)

// nCommands start with the letter n, so a literal \n in front of them is part
// of the command and not a line break.
var nCommands = set(
	"ne", "neq", "nabla", "nu", "neg", "not", "ni", "nmid", "nleq", "ngeq",
	"nless", "ngtr", "nsubseteq", "nsupseteq", "notin", "nexists", "newline",
	"nolimits", "nparallel", "nsim", "ncong", "nrightarrow", "nleftarrow",
)

// symbols replaced with Unicode outside math delimiters.
var symbols = map[string]string{
	"rightarrow":     "→",
	"leftarrow":      "←",
	"Rightarrow":     "⇒",
	"Leftarrow":      "⇐",
	"leftrightarrow": "↔",
	"Leftrightarrow": "⇔",
	"to":             "→",
	"implies":        "⟹",
	"iff":            "⟺",
	"uparrow":        "↑",
	"downarrow":      "↓",
	"leq":            "≤",
	"le":             "≤",
	"geq":            "≥",
	"ge":             "≥",
	"neq":            "≠",
	"ne":             "≠",
	"approx":         "≈",
	"equiv":          "≡",
	"sim":            "∼",
	"propto":         "∝",
	"pm":             "±",
	"mp":             "∓",
	"infty":          "∞",
	"times":          "×",
	"div":            "÷",
	"cdot":           "·",
	"degree":         "°",
	"circ":           "∘",
	"therefore":      "∴",
	"because":        "∵",
	"in":             "∈",
	"notin":          "∉",
	"subset":         "⊂",
	"subseteq":       "⊆",
	"cup":            "∪",
	"cap":            "∩",
	"emptyset":       "∅",
	"angle":          "∠",
	"perp":           "⊥",
	"parallel":       "∥",
	"triangle":       "△",
	"nabla":          "∇",
	"partial":        "∂",
	"alpha":          "α",
	"beta":           "β",
	"gamma":          "γ",
	"delta":          "δ",
	"epsilon":        "ε",
	"theta":          "θ",
	"lambda":         "λ",
	"mu":             "μ",
	"pi":             "π",
	"rho":            "ρ",
	"sigma":          "σ",
	"tau":            "τ",
	"phi":            "φ",
	"omega":          "ω",
	"Gamma":          "Γ",
	"Delta":          "Δ",
	"Theta":          "Θ",
	"Pi":             "Π",
	"Sigma":          "Σ",
	"Omega":          "Ω",
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
