package llm

// identifyPrompt is the instruction sent ahead of the images. Every provider uses it verbatim.
const identifyPrompt = `Analyze the attached image(s) and determine whether they come from a movie or TV show.
If more than one image is attached, treat them as possibly different frames of the same title.

If they do:
1. Identify the Movie/Show Title.
2. Estimate the Release Year.
3. Provide a brief 1-sentence plot summary relevant to the scene if possible, or the movie in general.
4. Give a confidence score (0.0 to 1.0).

If they do NOT (e.g., a desktop screenshot, personal photo, random object), set "is_movie" to false.

Return the result as a raw JSON object with the following structure:
{
    "title": "Movie Title",
    "year": "YYYY",
    "summary": "Plot summary...",
    "confidence": 0.95,
    "is_movie": true
}`

// submitToolName is the tool Claude is forced to call to return structured output.
const submitToolName = "submit_movie"

// movieSchemaProperties is the JSON schema of the structured answer, shared by the
// Anthropic tool definition. Gemini builds the same shape with its own schema type.
func movieSchemaProperties() map[string]interface{} {
	return map[string]interface{}{
		"title": map[string]interface{}{
			"type":        "string",
			"description": "Title of the movie or show. Empty if unknown.",
		},
		"year": map[string]interface{}{
			"type":        "string",
			"description": "Estimated release year as YYYY. Empty if unknown.",
		},
		"summary": map[string]interface{}{
			"type":        "string",
			"description": "One-sentence plot summary.",
		},
		"confidence": map[string]interface{}{
			"type":        "number",
			"description": "Confidence between 0.0 and 1.0.",
		},
		"is_movie": map[string]interface{}{
			"type":        "boolean",
			"description": "False for non-cinematic content such as desktop screenshots or personal photos.",
		},
	}
}

var movieSchemaRequired = []string{"title", "year", "summary", "confidence", "is_movie"}
