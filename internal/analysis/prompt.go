package analysis

func prompt() string {
	return `Analyze this resume and provide insights using markdown formatting. Include:

# Resume Analysis

## Key Skills and Expertise
* List the main technical skills
* List soft skills
* Highlight unique capabilities

## Experience Level
* Years of experience
* Seniority level
* Industry expertise

## Areas for Improvement
1. List potential gaps
2. Missing skills for their target role
3. Certification recommendations

## Suggested Optimizations
* Format improvements
* Content suggestions
* Keywords to add

Please use markdown features like:
- **bold** for important points
- *italic* for emphasis
- ` + "`code`" + ` for technical terms
- ### for subsections
- > for important quotes or highlights

Base all reasoning only on the resume text you are given.
`
}

// message is the user turn sent alongside the instruction.
func message(resumeText string) string {
	return "Resume text:\n" + resumeText
}
