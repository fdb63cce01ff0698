package pathutil

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Document</title>
</head>
<body>

</body>
</html>
`

// DefaultContent returns the starter content for a new file with the given
// name. Unknown languages start empty.
func DefaultContent(name string) []byte {
	switch LanguageForExtension(Extension(name)).ID {
	case "typescript", "tsx":
		return []byte("// TypeScript file\n\nexport {}\n")
	case "javascript", "jsx":
		return []byte("// JavaScript file\n\n")
	case "python":
		return []byte("#!/usr/bin/env python3\n# Python file\n\n")
	case "html":
		return []byte(htmlTemplate)
	case "css":
		return []byte("/* CSS file */\n\n")
	case "json":
		return []byte("{\n    \n}\n")
	case "markdown":
		return []byte("# Markdown File\n\n")
	default:
		return []byte{}
	}
}
