package handler

import (
	"github.com/kart-io/camaral-bot/internal/bot/biz"
	"github.com/kart-io/camaral-bot/pkg/telegram"
)

// Callback data of the inline keyboards.
const (
	callbackPricing        = "pricing"
	callbackTryFree        = "try_free"
	callbackMainMenu       = "main_menu"
	callbackWhatIsCamaral  = "what_is_camaral"
	callbackHowItWorks     = "how_it_works"
	callbackUseCases       = "use_cases"
	callbackPlanPro        = "plan_pro"
	callbackPlanScale      = "plan_scale"
	callbackPlanGrowth     = "plan_growth"
	callbackPlanEnterprise = "plan_enterprise"
)

// callbackQuestions maps question buttons to the prompt sent to the generator.
var callbackQuestions = map[string]string{
	callbackWhatIsCamaral:  "¿Qué es Camaral y qué hace? Explica brevemente.",
	callbackHowItWorks:     "¿Cómo funciona la tecnología de avatares de Camaral?",
	callbackUseCases:       "¿Cuáles son los principales casos de uso de Camaral?",
	callbackPlanPro:        "Dame todos los detalles del plan Pro de $99/mes de Camaral",
	callbackPlanScale:      "Dame todos los detalles del plan Scale de $299/mes de Camaral",
	callbackPlanGrowth:     "Dame todos los detalles del plan Growth de $799/mes de Camaral",
	callbackPlanEnterprise: "¿Qué incluye el plan Enterprise de Camaral?",
}

func welcomeMessage(firstName string) string {
	greeting := "¡Hola"
	if firstName != "" {
		greeting += " " + firstName
	}
	return greeting + `! 👋

Soy el asistente virtual de *Camaral*, la plataforma de avatares con IA que participan en tus reuniones de ventas y soporte.

Puedo ayudarte a conocer más sobre:
• Qué hace Camaral y cómo funciona
• Casos de uso y beneficios
• Planes y precios
• Cómo empezar

*¿Qué te gustaría saber?* 👇`
}

const helpMessage = `*Comandos disponibles:*

/start - Iniciar conversación
/help - Ver esta ayuda
/precios - Ver planes y precios
/demo - Agendar una demo

También puedes:
• Escribirme cualquier pregunta sobre Camaral
• Enviarme un mensaje de voz 🎤

*¿En qué puedo ayudarte?*`

const demoMessage = `🗓️ *¡Agenda tu demo personalizada!*

En 30 minutos podrás:
• Ver los avatares de Camaral en acción
• Explorar casos de uso para tu industria
• Resolver todas tus dudas
• Conocer el proceso de implementación

👇 *Selecciona un horario que te funcione:*`

const pricingMessage = `💰 *Planes de Camaral*

*Pro* - $99/mes → 500 min incluidos
*Scale* - $299/mes → 1,600 min incluidos
*Growth* - $799/mes → 3,600 min incluidos
*Enterprise* - Personalizado

Todos incluyen avatares ilimitados y acceso a API.

👇 *Selecciona un plan para más detalles:*`

const tryFreeMessage = `🚀 *¡Comienza con Camaral!*

La mejor forma de empezar es agendando una demo con nuestro equipo:

✅ Te mostramos la plataforma en vivo
✅ Configuramos tu primer avatar juntos
✅ Resolvemos todas tus dudas
✅ Sin compromiso

👇 *Agenda tu demo gratuita:*`

const (
	mainMenuMessage   = "¿En qué más puedo ayudarte? 👇"
	errorMessage      = "Lo siento, hubo un error. Por favor intenta de nuevo."
	voiceErrorMessage = "Lo siento, hubo un error con el mensaje de voz. ¿Podrías escribir tu pregunta?"
	voiceEmptyMessage = "No pude entender el mensaje de voz. ¿Podrías intentar de nuevo?"
	voiceEchoTemplate = "🎤 _\"%s\"_"
	voiceNoteFilename = "voice.ogg"
)

// Bot commands.
const (
	commandStart   = "start"
	commandHelp    = "help"
	commandDemo    = "demo"
	commandPricing = "precios"
)

func demoCTAKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewKeyboard().
		URL("🗓️ Agendar una demo", biz.CalendlyURL).
		Row().
		Text("⬅️ Menú principal", callbackMainMenu).
		Build()
}

func mainMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewKeyboard().
		Text("🤖 ¿Qué es Camaral?", callbackWhatIsCamaral).
		Text("⚙️ ¿Cómo funciona?", callbackHowItWorks).
		Row().
		Text("💼 Casos de uso", callbackUseCases).
		Text("💰 Precios", callbackPricing).
		Row().
		URL("🗓️ Agendar demo", biz.CalendlyURL).
		Text("🚀 Probar gratis", callbackTryFree).
		Build()
}

func pricingKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewKeyboard().
		Text("Plan Pro - $99/mes", callbackPlanPro).
		Row().
		Text("Plan Scale - $299/mes", callbackPlanScale).
		Row().
		Text("Plan Growth - $799/mes", callbackPlanGrowth).
		Row().
		Text("🏢 Enterprise", callbackPlanEnterprise).
		Row().
		URL("🗓️ Agendar demo", biz.CalendlyURL).
		Row().
		Text("⬅️ Menú principal", callbackMainMenu).
		Build()
}
