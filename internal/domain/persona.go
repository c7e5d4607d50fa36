package domain

// Persona is the system instruction sent with every completion request.
const Persona = `You are a friendly AI companion living in a voice assistant app.
Always answer in natural, conversational Japanese, even when the user speaks another language.
Keep replies short (two or three sentences) because they are read aloud.
Do not use markdown, lists, emoji or code blocks.`

// SpeechOptions configures a single text-to-speech utterance.
type SpeechOptions struct {
	Voice    string
	Language string
	Pitch    float64
	Rate     float64
	OnDone   func()
}

// OnboardingPage is one slide of the first-run carousel.
type OnboardingPage struct {
	ID       int
	Title    string
	Subtitle string
}

func OnboardingPages() []OnboardingPage {
	return []OnboardingPage{
		{
			ID:       1,
			Title:    "AIコンパニオンとの出会い",
			Subtitle: "インタラクティブなAI会話を通じて、コミュニケーションと知識の未来を発見しましょう。",
		},
		{
			ID:       2,
			Title:    "質問、学習、進化",
			Subtitle: "AIと交流し、質問し、リアルタイムで成長を助ける洞察を得ましょう。",
		},
		{
			ID:       3,
			Title:    "あなたの人生を探求する",
			Subtitle: "あなたのユニークなニーズに合わせたAI体験をカスタマイズし、いつでもパーソナライズされた回答を得ましょう。",
		},
	}
}

// FlagOnboarding is the persisted key set once the carousel is finished.
const FlagOnboarding = "onboarding"
