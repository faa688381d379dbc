package prompts

import "github.com/wolfman30/emi-voice-agent/internal/language"

var defaultTemplates = map[Kind]map[language.Language]string{
	Greeting: {
		language.English: "Hello, this is {agent} calling on behalf of {lender}. Am I speaking with {name}?",
		language.Hindi:   "नमस्ते, मैं {agent} हूं और {lender} की ओर से बात कर रही हूं। क्या मैं {name} से बात कर रही हूं?",
		language.Tamil:   "வணக்கம், நான் {agent}. இது {lender} இலிருந்து அழைப்பு. {name} பேசுகிறீர்களா?",
		language.Telugu:  "హలో, నేను {agent} మాట్లాడుతున్నాను, ఇది {lender} నుండి కాల్. {name} మాట్లాడుతున్నారా?",
	},
	EMIPart1: {
		language.English: "Thank you. I'm calling about your loan ending in {loan_id}, which has an outstanding EMI of ₹{amount} due on {due_date}. I understand payments can be delayed, and I'm here to help you avoid any further impact.",
		language.Hindi:   "धन्यवाद। मैं आपके लोन (अंतिम चार अंक {loan_id}) के बारे में कॉल कर रही हूँ, जिसकी बकाया ईएमआई ₹{amount} है, जो {due_date} को देय है। मैं आपकी मदद के लिए यहाँ हूँ ताकि आगे कोई समस्या न हो।",
		language.Tamil:   "நன்றி. உங்கள் கடன் (கடைசி நான்கு இலக்கங்கள் {loan_id}) குறித்து அழைக்கிறேன், அதற்கான நிலுவை EMI ₹{amount} {due_date} அன்று செலுத்த வேண்டியது உள்ளது.",
		language.Telugu:  "ధన్యవాదాలు. మీ రుణం ({loan_id} తో ముగిసే) గురించి కాల్ చేస్తున్నాను, దీనికి ₹{amount} EMI {due_date} నాటికి బాకీగా ఉంది.",
	},
	EMIPart2: {
		language.English: "Please note: if this EMI remains unpaid, it may be reported to the credit bureau, which can affect your credit score. Continued delay may also lead to penalty charges or collection notices.",
		language.Hindi:   "कृपया ध्यान दें: यदि यह ईएमआई बकाया रहती है, तो इसे क्रेडिट ब्यूरो को रिपोर्ट किया जा सकता है, जिससे आपका क्रेडिट स्कोर प्रभावित हो सकता है।",
		language.Tamil:   "தயவு செய்து கவனிக்கவும்: இந்த EMI செலுத்தப்படவில்லை என்றால், அது கிரெடிட் ப்யூரோவுக்கு தெரிவிக்கப்படலாம், இது உங்கள் கிரெடிட் ஸ்கோருக்கு பாதிப்பை ஏற்படுத்தும்.",
		language.Telugu:  "దయచేసి గమనించండి: ఈ EMI చెల్లించకపోతే, అది క్రెడిట్ బ్యూరోకు నివేదించబడవచ్చు, ఇది మీ క్రెడిట్ స్కోర్‌ను ప్రభావితం చేయవచ్చు.",
	},
	AgentQuestion: {
		language.English: "If you're facing difficulties, we have options like part payments or revised EMI plans. Would you like me to connect you to one of our agents?",
		language.Hindi:   "यदि आपको कठिनाई हो रही है, तो हमारे पास आंशिक भुगतान या संशोधित ईएमआई योजनाओं जैसे विकल्प हैं। क्या आप चाहेंगे कि मैं आपको हमारे एजेंट से जोड़ दूं?",
		language.Tamil:   "உங்களுக்கு சிரமம் இருந்தால், பகுதி கட்டணம் அல்லது திருத்தப்பட்ட EMI திட்டங்கள் உள்ளன. எங்கள் ஏஜெண்டுடன் இணைக்க விரும்புகிறீர்களா?",
		language.Telugu:  "మీకు ఇబ్బంది ఉంటే, భాగ చెల్లింపులు లేదా సవరించిన EMI ప్లాన్‌లు ఉన్నాయి. మా ఏజెంట్‌ను కలిపించాలా?",
	},
	Goodbye: {
		language.English: "I understand. If you change your mind, please call us back. Thank you. Goodbye.",
		language.Hindi:   "मैं समझती हूँ। यदि आप अपना विचार बदलते हैं, तो कृपया हमें वापस कॉल करें। धन्यवाद। अलविदा।",
		language.Tamil:   "நான் புரிந்துகொள்கிறேன். நீங்கள் மனதை மாற்றினால், தயவுசெய்து எங்களை மீண்டும் அழைக்கவும். நன்றி.",
		language.Telugu:  "నాకు అర్థమైంది. మీరు అభిప్రాయాన్ని మార్చుకుంటే, దయచేసి మమ్మల్ని తిరిగి కాల్ చేయండి. ధన్యవాదాలు.",
	},
	DidNotHear: {
		language.English: "I'm sorry, I didn't hear your response. This call is regarding your loan account. If this is a convenient time to talk, please say yes.",
		language.Hindi:   "क्षमा करें, मुझे आपका जवाब सुनाई नहीं दिया। यह कॉल आपके लोन खाते के बारे में है। अगर बात करने का सही समय है, तो कृपया हाँ कहें।",
	},
	TransferNotice: {
		language.English: "Please wait, we are transferring the call to an agent.",
		language.Hindi:   "कृपया प्रतीक्षा करें, हम आपकी कॉल एजेंट को ट्रांसफर कर रहे हैं।",
	},
	Apology: {
		language.English: "We're sorry, we are facing a technical issue. We will call you back later. Goodbye.",
		language.Hindi:   "क्षमा करें, तकनीकी समस्या आ रही है। हम आपको बाद में कॉल करेंगे। अलविदा।",
	},
}
