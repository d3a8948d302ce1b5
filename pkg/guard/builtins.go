package guard

// Built-in pattern and rule catalogs. Instruction-override, context-hijack,
// info-extraction, code-execution, jailbreak, and obfuscation entries are
// reworked from scratch against the spec's category list; the
// credential_leak category adapts the teacher's cmd/aleutian/log_sanitizer.go
// DefaultSanitizationPatterns (email/bearer-token/credit-card/SSN/AWS-key/
// hex-secret/JWT/private-key/URL-password detectors) from log-redaction
// regexes into scored Pattern + SanitizeRule pairs. There are no IPv4, IPv6
// or generic API-key detectors in this catalog.

// DefaultPatterns returns the built-in pattern catalog. The slice is fresh
// on every call so callers may freely mutate it before passing to Compile.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			ID:          "instruction_override.ignore_previous",
			Regex:       `(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions?`,
			Severity:    SeverityCritical,
			Category:    "instruction_override",
			Weight:      95,
			Sanitize:    true,
			Description: "Direct request to discard prior instructions.",
		},
		{
			ID:          "instruction_override.disregard",
			Regex:       `(?i)disregard\s+(everything|all|any)\s+(you\s+)?(were\s+)?(told|instructed)`,
			Severity:    SeverityHigh,
			Category:    "instruction_override",
			Weight:      80,
			Sanitize:    true,
			Description: "Request to disregard prior guidance.",
		},
		{
			ID:          "instruction_override.new_instructions",
			Regex:       `(?i)(your\s+)?new\s+instructions?\s+(are|is)\s*:`,
			Severity:    SeverityHigh,
			Category:    "instruction_override",
			Weight:      75,
			Sanitize:    true,
			Description: "Attempt to inject a replacement instruction set.",
		},
		{
			ID:          "context_hijack.inst_marker",
			Regex:       `(?i)\[\s*inst\s*\]`,
			Severity:    SeverityHigh,
			Category:    "context_hijack",
			Weight:      70,
			Sanitize:    true,
			Description: "Literal [INST] chat-template marker in untrusted text.",
		},
		{
			ID:          "context_hijack.im_start",
			Regex:       `(?i)<\|im_start\|>|<\|system\|>`,
			Severity:    SeverityHigh,
			Category:    "context_hijack",
			Weight:      70,
			Sanitize:    true,
			Description: "Literal chat-template role marker in untrusted text.",
		},
		{
			ID:          "context_hijack.system_prefix",
			Regex:       `(?i)#\s*system\s*[:\]]`,
			Severity:    SeverityHigh,
			Category:    "context_hijack",
			Weight:      70,
			Sanitize:    true,
			Description: "Markdown-style fake system-role prefix.",
		},
		{
			ID:          "info_extraction.reveal_system_prompt",
			Regex:       `(?i)(reveal|show|print|repeat|output)\s+(the\s+)?(system|hidden|original)\s+prompt`,
			Severity:    SeverityCritical,
			Category:    "info_extraction",
			Weight:      90,
			Sanitize:    true,
			Description: "Attempt to extract the system prompt verbatim.",
		},
		{
			ID:          "info_extraction.reveal_instructions",
			Regex:       `(?i)what\s+(are\s+)?your\s+(instructions|rules|guidelines)`,
			Severity:    SeverityMedium,
			Category:    "info_extraction",
			Weight:      50,
			Sanitize:    true,
			Description: "Attempt to enumerate operator instructions.",
		},
		{
			ID:          "code_execution.execute_code",
			Regex:       `(?i)execute\s+this\s+(python|shell|bash|code)`,
			Severity:    SeverityHigh,
			Category:    "code_execution",
			Weight:      75,
			Sanitize:    true,
			Description: "Request to execute attacker-supplied code.",
		},
		{
			ID:          "code_execution.shell_injection",
			Regex:       `(?i)(;|\|\||&&)\s*(rm\s+-rf|curl\s+http|wget\s+http)`,
			Severity:    SeverityCritical,
			Category:    "code_execution",
			Weight:      95,
			Sanitize:    true,
			Description: "Shell command chaining toward a dangerous command.",
		},
		{
			ID:          "jailbreak.unrestricted_roleplay",
			Regex:       `(?i)act\s+as\s+(an?\s+)?unrestricted`,
			Severity:    SeverityHigh,
			Category:    "jailbreak",
			Weight:      80,
			Sanitize:    true,
			Description: "Role-play framing intended to remove guardrails.",
		},
		{
			ID:          "jailbreak.dan_persona",
			Regex:       `(?i)\bDAN\b.{0,20}(do\s+anything\s+now)`,
			Severity:    SeverityHigh,
			Category:    "jailbreak",
			Weight:      80,
			Sanitize:    true,
			Description: "Known jailbreak persona framing.",
		},
		{
			ID:          "jailbreak.no_restrictions",
			Regex:       `(?i)(pretend|imagine)\s+you\s+have\s+no\s+(restrictions|limitations|filters)`,
			Severity:    SeverityHigh,
			Category:    "jailbreak",
			Weight:      78,
			Sanitize:    true,
			Description: "Hypothetical framing intended to bypass guardrails.",
		},
		{
			ID:          "obfuscation.leet_ignore",
			Regex:       `(?i)[i1]gn[o0]r[e3]\s+previ[o0]us`,
			Severity:    SeverityHigh,
			Category:    "obfuscation",
			Weight:      75,
			Sanitize:    true,
			Description: "Leetspeak-obfuscated instruction-override attempt.",
		},
		{
			ID:          "obfuscation.zero_width_ignore",
			Regex:       `(?i)i\x{200B}?g\x{200B}?n\x{200B}?o\x{200B}?r\x{200B}?e\s+previ\x{200B}?[o0]\x{200B}?us`,
			Severity:    SeverityHigh,
			Category:    "obfuscation",
			Weight:      75,
			Sanitize:    true,
			Description: "Zero-width-character-obfuscated 'ignore previous'.",
		},
		{
			ID:          "credential_leak.email",
			Regex:       `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`,
			Severity:    SeverityLow,
			Category:    "credential_leak",
			Weight:      25,
			Sanitize:    true,
			Description: "Email address.",
		},
		{
			ID:          "credential_leak.aws_key",
			Regex:       `\b(AKIA|ASIA)[0-9A-Z]{16}\b`,
			Severity:    SeverityCritical,
			Category:    "credential_leak",
			Weight:      95,
			Sanitize:    true,
			Description: "AWS access key identifier.",
		},
		{
			ID:          "credential_leak.bearer_token",
			Regex:       `(?i)bearer\s+[a-zA-Z0-9\-._~+/]{20,}`,
			Severity:    SeverityHigh,
			Category:    "credential_leak",
			Weight:      85,
			Sanitize:    true,
			Description: "Bearer authorization token.",
		},
		{
			ID:          "credential_leak.jwt",
			Regex:       `\beyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\b`,
			Severity:    SeverityHigh,
			Category:    "credential_leak",
			Weight:      80,
			Sanitize:    true,
			Description: "JSON Web Token.",
		},
		{
			ID:          "credential_leak.private_key",
			Regex:       `-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`,
			Severity:    SeverityCritical,
			Category:    "credential_leak",
			Weight:      100,
			Sanitize:    true,
			Description: "PEM-encoded private key block.",
		},
		{
			ID:          "credential_leak.hex_secret",
			Regex:       `\b[a-f0-9]{32,64}\b`,
			Severity:    SeverityLow,
			Category:    "credential_leak",
			Weight:      30,
			Sanitize:    true,
			Description: "Hex-encoded secret-shaped token.",
		},
		{
			ID:          "credential_leak.credit_card",
			Regex:       `\b(?:\d[ -]*?){13,16}\b`,
			Severity:    SeverityHigh,
			Category:    "credential_leak",
			Weight:      85,
			Sanitize:    true,
			Description: "Credit-card-shaped number sequence.",
		},
		{
			ID:          "credential_leak.ssn",
			Regex:       `\b\d{3}-\d{2}-\d{4}\b`,
			Severity:    SeverityHigh,
			Category:    "credential_leak",
			Weight:      85,
			Sanitize:    true,
			Description: "US Social Security Number shape.",
		},
		{
			ID:          "credential_leak.url_password",
			Regex:       `[a-zA-Z][a-zA-Z0-9+.\-]*://[^/\s:@]+:[^/\s:@]+@`,
			Severity:    SeverityHigh,
			Category:    "credential_leak",
			Weight:      80,
			Sanitize:    true,
			Description: "Password embedded in a URL's userinfo component.",
		},
	}
}

// DefaultSanitizeRules returns the built-in sanitization rule catalog,
// registered in descending priority and keyed to the categories above.
func DefaultSanitizeRules() []SanitizeRule {
	return []SanitizeRule{
		{
			ID:          "instruction_override.ignore_previous",
			Regex:       `(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions?`,
			Action:      ActionReplace,
			Replacement: "[REQUEST_TO_IGNORE_INSTRUCTIONS]",
			Category:    "instruction_override",
			Priority:    100,
		},
		{
			ID:          "instruction_override.disregard",
			Regex:       `(?i)disregard\s+(everything|all|any)\s+(you\s+)?(were\s+)?(told|instructed)`,
			Action:      ActionReplace,
			Replacement: "[INSTRUCTION_REMOVED]",
			Category:    "instruction_override",
			Priority:    99,
		},
		{
			ID:          "instruction_override.new_instructions",
			Regex:       `(?i)(your\s+)?new\s+instructions?\s+(are|is)\s*:`,
			Action:      ActionReplace,
			Replacement: "[INSTRUCTION_REMOVED]",
			Category:    "instruction_override",
			Priority:    98,
		},
		{
			ID:       "context_hijack.chat_template_markers",
			Regex:    `(?i)\[\s*inst\s*\]|\[\s*/\s*inst\s*\]|<\|im_start\|>|<\|system\|>`,
			Action:   ActionRemove,
			Category: "context_hijack",
			Priority: 95,
		},
		{
			ID:          "context_hijack.system_prefix",
			Regex:       `(?i)#\s*system\s*[:\]]`,
			Action:      ActionReplace,
			Replacement: "[SYSTEM_MARKER]",
			Category:    "context_hijack",
			Priority:    94,
		},
		{
			ID:          "info_extraction.reveal",
			Regex:       `(?i)(reveal|show|print|repeat|output)\s+(the\s+)?(system|hidden|original)\s+prompt`,
			Action:      ActionReplace,
			Replacement: "[REDACTED:info_extraction]",
			Category:    "info_extraction",
			Priority:    90,
		},
		{
			ID:       "code_execution.execute",
			Regex:    `(?i)execute\s+this\s+(python|shell|bash|code)`,
			Action:   ActionQuote,
			Category: "code_execution",
			Priority: 85,
		},
		{
			ID:       "jailbreak.roleplay",
			Regex:    `(?i)act\s+as\s+(an?\s+)?unrestricted|\bDAN\b.{0,20}(do\s+anything\s+now)|(pretend|imagine)\s+you\s+have\s+no\s+(restrictions|limitations|filters)`,
			Action:   ActionNeutralize,
			Category: "jailbreak",
			Priority: 80,
		},
		{
			ID:       "obfuscation.leet",
			Regex:    `(?i)[i1]gn[o0]r[e3]\s+previ[o0]us`,
			Action:   ActionNeutralize,
			Category: "obfuscation",
			Priority: 75,
		},
		{
			ID:          "credential_leak.private_key",
			Regex:       `-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (RSA |EC |OPENSSH )?PRIVATE KEY-----`,
			Action:      ActionReplace,
			Replacement: "[PRIVATE_KEY_REMOVED]",
			Category:    "credential_leak",
			Priority:    70,
		},
		{
			ID:          "credential_leak.aws_key",
			Regex:       `\b(AKIA|ASIA)[0-9A-Z]{16}\b`,
			Action:      ActionReplace,
			Replacement: "[AWS_KEY_REMOVED]",
			Category:    "credential_leak",
			Priority:    69,
		},
		{
			ID:          "credential_leak.jwt",
			Regex:       `\beyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\b`,
			Action:      ActionReplace,
			Replacement: "[JWT_REMOVED]",
			Category:    "credential_leak",
			Priority:    68,
		},
		{
			ID:          "credential_leak.bearer",
			Regex:       `(?i)bearer\s+[a-zA-Z0-9\-._~+/]{20,}`,
			Action:      ActionReplace,
			Replacement: "[BEARER_TOKEN_REMOVED]",
			Category:    "credential_leak",
			Priority:    67,
		},
		{
			ID:          "credential_leak.url_password",
			Regex:       `([a-zA-Z][a-zA-Z0-9+.\-]*://[^/\s:@]+):[^/\s:@]+@`,
			Action:      ActionReplace,
			Replacement: "$1:[REDACTED]@",
			Category:    "credential_leak",
			Priority:    66,
		},
		{
			ID:          "credential_leak.credit_card",
			Regex:       `\b(?:\d[ -]*?){13,16}\b`,
			Action:      ActionReplace,
			Replacement: "[CREDIT_CARD_REDACTED]",
			Category:    "credential_leak",
			Priority:    65,
		},
		{
			ID:          "credential_leak.ssn",
			Regex:       `\b\d{3}-\d{2}-\d{4}\b`,
			Action:      ActionReplace,
			Replacement: "[SSN_REDACTED]",
			Category:    "credential_leak",
			Priority:    64,
		},
		{
			ID:          "credential_leak.email",
			Regex:       `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`,
			Action:      ActionReplace,
			Replacement: "[EMAIL_REDACTED]",
			Category:    "credential_leak",
			Priority:    60,
		},
		{
			ID:          "credential_leak.hex_secret",
			Regex:       `\b[a-f0-9]{32,64}\b`,
			Action:      ActionReplace,
			Replacement: "[SECRET_REDACTED]",
			Category:    "credential_leak",
			Priority:    59,
		},
	}
}
