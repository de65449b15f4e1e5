package issues

// originalSeparator sits between the generated text and the description the
// issue had when it was received.
const originalSeparator = ", \n Original description:\n "

// ComposeDescription builds the description written back to Jira. An empty
// original leaves the generated text untouched.
func ComposeDescription(generated, original string) string {
	if original == "" {
		return generated
	}
	return generated + originalSeparator + original
}
