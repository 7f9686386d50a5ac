package element

// Type is the element_type sub-tag of an element record.
type Type string

const (
	BasicElement  Type = "basic_element"
	ImageFlat     Type = "image_flat"
	VideoFlat     Type = "video_flat"
	Audio         Type = "audio"
	AudioSSML     Type = "audio_ssml"
	Text          Type = "text"
	Object3D      Type = "object_3d"
	Score         Type = "score"
	Timer         Type = "timer"
	Menu          Type = "menu"
	GIF           Type = "gif"
	PanoImage     Type = "pano_image"
	PanoVideo     Type = "pano_video"
	Polygon       Type = "polygon"
	Cube          Type = "cube"
	Sphere        Type = "sphere"
	Cone          Type = "cone"
	Torus         Type = "torus"
	Cylinder      Type = "cylinder"
	Carousel      Type = "carousel"
	Wayfinder     Type = "wayfinder"
	Icon          Type = "icon"
	Speech        Type = "speech"
	Actionbar     Type = "actionbar"
	ProductCard   Type = "product_card"
	Quiz          Type = "quiz"
	Group         Type = "group"
	QRCodeBrowser Type = "qrcode_browser"
	QRCodeMatcher Type = "qrcode_matcher"
	MediaUpload   Type = "media_upload"
	WebState      Type = "web_state"
	CaptureInput  Type = "capture_input"
	Share         Type = "share"
	EmbedHTML     Type = "embed_html"
	AR            Type = "ar"
	EmbedSCORM    Type = "embed_scorm"
	Instruction   Type = "instruction"
	ShoppingItem  Type = "shopping_item"
	Popup         Type = "popup"
	Light         Type = "light"
	Hotspot       Type = "hotspot"
	Environment   Type = "environment"
	Zone          Type = "zone"
)

// DisplayNames maps each element type to its editor label.
var DisplayNames = map[Type]string{
	BasicElement:  "Basic Element",
	PanoImage:     "Image 360",
	PanoVideo:     "Video 360",
	ImageFlat:     "Image",
	VideoFlat:     "Video",
	Text:          "Text",
	GIF:           "GIF",
	Icon:          "Emoji",
	Audio:         "Audio",
	AudioSSML:     "Text-to-Speech",
	Object3D:      "3D Model",
	Polygon:       "Polygon",
	Cube:          "Cube",
	Sphere:        "Sphere",
	Cone:          "Cone",
	Torus:         "Torus",
	Cylinder:      "Cylinder",
	Light:         "Light",
	AR:            "AR",
	QRCodeBrowser: "QR Browser",
	QRCodeMatcher: "QR Matcher",
	Wayfinder:     "Wayfinder",
	Score:         "Score",
	Timer:         "Timer",
	Quiz:          "Quiz",
	Speech:        "Voice Recognition",
	CaptureInput:  "Capture Input",
	MediaUpload:   "Media Upload",
	Actionbar:     "Actionbar",
	Popup:         "Pop-up",
	ProductCard:   "Product Card",
	Instruction:   "Story",
	EmbedHTML:     "Embed HTML",
	Share:         "Share",
	EmbedSCORM:    "SCORM",
	ShoppingItem:  "Shopping Item",
	Menu:          "Menu",
	Carousel:      "Pop-up",
	Group:         "Group",
	WebState:      "Web State",
	Hotspot:       "Hotspot",
	Environment:   "Environment",
	Zone:          "zone",
}

// Category groups element types in the editor palette.
type Category string

const (
	CategoryPanorama      Category = "panorama"
	CategoryStandard      Category = "standard"
	CategoryAudio         Category = "audio"
	CategoryThreeD        Category = "three_d"
	CategorySpatial       Category = "spatial"
	CategoryGamification  Category = "gamification"
	CategoryUserInput     Category = "user_input"
	CategoryUserInterface Category = "user_interface"
	CategoryConnect       Category = "connect"
	CategoryEcommerce     Category = "ecommerce"
)

// TypesByCategory lists the palette contents. Group is not in the palette; it is
// created by grouping existing elements.
var TypesByCategory = map[Category][]Type{
	CategoryPanorama:      {PanoImage, PanoVideo},
	CategoryStandard:      {ImageFlat, VideoFlat, Text, GIF, Icon, Hotspot},
	CategoryAudio:         {Audio, AudioSSML},
	CategoryThreeD:        {Object3D, Polygon, Cube, Sphere, Cone, Torus, Cylinder, Light, Environment, Zone},
	CategorySpatial:       {AR, QRCodeBrowser, QRCodeMatcher},
	CategoryGamification:  {Score, Timer, Quiz},
	CategoryUserInput:     {Speech, CaptureInput, MediaUpload},
	CategoryUserInterface: {Actionbar, Popup, ProductCard, Instruction},
	CategoryConnect:       {EmbedHTML, Share, EmbedSCORM},
	CategoryEcommerce:     {ShoppingItem},
}

// WithLinkedVariables are element types that own a project variable.
var WithLinkedVariables = []Type{EmbedSCORM, MediaUpload}

// ShoppingItemElementID is the reserved id of the synthetic shopping item element.
const ShoppingItemElementID int64 = -102

// IsType reports whether s names a known element type.
func IsType(s string) bool {
	_, ok := DisplayNames[Type(s)]
	return ok
}
