package constant

const (
	// ImageAnalysisPrompt is sent as chatInput when the user attached an image without text.
	ImageAnalysisPrompt = "Please analyze this image and tell me what you see. What type of product is this and what manufacturing details can you identify?"

	FallbackResponse = "Thank you for your message!"

	ChatFailedError    = "Failed to process chat message"
	ChatFailedApology  = "I apologize, but I'm having trouble connecting right now. Please try again in a moment."
	HealthStatusOK     = "ok"
	TopicTurnCompleted = "chat.turn.completed"
)

// ImageKeywords mark a reply as having dealt with the uploaded image.
var ImageKeywords = []string{
	"image",
	"picture",
	"photo",
	"visual",
	"see",
	"analyze",
	"product",
	"item",
}
