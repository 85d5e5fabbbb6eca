package agent

import (
	"github.com/hupe1980/healthmesh/model"
	"github.com/hupe1980/healthmesh/registry"
	"github.com/hupe1980/healthmesh/tool"
)

// Well-known agent names of the health assistant team. GuardrailName is the
// entry agent, TriageName the coordinator and CriticName the terminal agent.
const (
	GuardrailName        = "Guardrail"
	TriageName           = "Triage Agent"
	PhysicianName        = "Physician"
	NutritionistName     = "Nutritionist"
	FitnessCoachName     = "Fitness Coach"
	SleepDoctorName      = "Sleep Doctor"
	MindfulnessCoachName = "Mindfulness Coach"
	UserPersonaName      = "User Persona"
	CriticName           = "Critic"
)

const guardrailInstructions = `You are the Guardrail for a personal health assistant.
Screen the incoming message before any specialist sees it:
- If it describes a medical emergency (chest pain, stroke symptoms, severe
  bleeding, suicidal intent), set next_agent to STOP and respond that the
  user must contact emergency services immediately.
- If it is unrelated to health, wellness, nutrition, fitness, sleep or
  mindfulness, set next_agent to STOP and politely decline.
- Otherwise hand off to the Triage Agent without altering the request.
Never attempt to answer the health question yourself.`

const triageInstructions = `You are the Triage Agent, the coordinator of a personal health team.
Read the request and the findings gathered so far, then route to the single
specialist best suited for the next step. Record what you still need as
tasks. When the specialists have produced enough material to answer, hand
off to the Critic for the final response. Do not answer the user directly.`

const physicianInstructions = `You are the Physician, a specialist in interpreting blood work and biomarkers.
Use your tools to fetch the user's biomarkers and the reference ranges, flag
values outside their range and explain what they mean in plain language.
Record each abnormal or notable marker as a finding. Hand off to the Critic
when your analysis is complete, or back to the Triage Agent if another
specialty is needed first.`

const nutritionistInstructions = `You are the Nutritionist, a specialist in diet and supplementation.
Use your tools to read the user's food journal, profile and supplement
reference data. Assess dietary patterns against the user's goals and record
concrete observations as findings. Hand off to the Critic when done.`

const fitnessCoachInstructions = `You are the Fitness Coach, a specialist in exercise and training.
Use your tools to read the user's activity log, profile and the workout plan
for their goal. Evaluate training load and consistency and record your
observations as findings. Hand off to the Critic when done.`

const sleepDoctorInstructions = `You are the Sleep Doctor, a specialist in sleep quality and recovery.
Use your tools to read the user's sleep data and profile. Assess duration,
consistency and sleep stages, record notable patterns as findings and hand
off to the Critic when done.`

const mindfulnessCoachInstructions = `You are the Mindfulness Coach, a specialist in stress and mental wellbeing.
Consider stress, recovery and lifestyle signals in the user's profile and
the findings so far. Suggest practical mindfulness interventions, record
them as findings and hand off to the Critic when done.`

const userPersonaInstructions = `You are the User Persona agent. You know the user's profile, goals and
preferences. Use your tool to read the profile and translate it into
context the other specialists need, recorded as findings. Hand off back to
the Triage Agent when done.`

const criticInstructions = `You are the Critic, the final reviewer of a personal health team.
Compose the answer the user will read from the conversation and the
accumulated findings. Be specific, cite the data points the specialists
surfaced, keep a supportive tone and include a short disclaimer that this
is not medical advice. Answer in plain text.`

// HealthTeam assembles the full health assistant team as registry
// definitions, in registration order: Guardrail (entry), Triage Agent
// (coordinator), the specialists, and the Critic (terminal).
//
// All agents share one model. Specialists get the data tools matching their
// specialty; the Guardrail, Triage Agent and Critic work tool-free.
func HealthTeam(llm model.Model, userData *tool.UserDataStore, reference *tool.ReferenceStore) []registry.Definition {
	profile := pickTools(tool.UserDataTools(userData), "get_user_profile")
	biomarkers := pickTools(tool.UserDataTools(userData), "get_biomarkers", "get_user_profile")
	ranges := pickTools(tool.ReferenceTools(reference), "get_biomarker_ranges")
	food := pickTools(tool.UserDataTools(userData), "get_food_journal", "get_user_profile")
	supplements := pickTools(tool.ReferenceTools(reference), "get_supplement_info")
	activity := pickTools(tool.UserDataTools(userData), "get_activity_log", "get_user_profile")
	workouts := pickTools(tool.ReferenceTools(reference), "get_workout_plan")
	sleep := pickTools(tool.UserDataTools(userData), "get_sleep_data", "get_user_profile")

	return []registry.Definition{
		{
			Name:         GuardrailName,
			Description:  "Screens requests for safety and health relevance before triage.",
			Capabilities: []string{"safety", "screening"},
			Agent: NewLLMAgent(GuardrailName, "Entry screen for the health team.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(guardrailInstructions)
				o.DefaultTarget = TriageName
			}),
		},
		{
			Name:         TriageName,
			Description:  "Coordinates the team and routes requests to the right specialist.",
			Capabilities: []string{"routing", "coordination"},
			Agent: NewLLMAgent(TriageName, "Coordinator of the health team.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(triageInstructions)
				o.DefaultTarget = CriticName
			}),
		},
		{
			Name:         PhysicianName,
			Description:  "Interprets blood work and biomarkers against reference ranges.",
			Capabilities: []string{"biomarkers", "blood work"},
			Agent: NewLLMAgent(PhysicianName, "Blood work and biomarker specialist.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(physicianInstructions)
				o.Tools = append(biomarkers, ranges...)
				o.DefaultTarget = CriticName
			}),
		},
		{
			Name:         NutritionistName,
			Description:  "Analyzes diet, food journals and supplementation.",
			Capabilities: []string{"nutrition", "supplements"},
			Agent: NewLLMAgent(NutritionistName, "Diet and supplementation specialist.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(nutritionistInstructions)
				o.Tools = append(food, supplements...)
				o.DefaultTarget = CriticName
			}),
		},
		{
			Name:         FitnessCoachName,
			Description:  "Evaluates activity logs and training plans.",
			Capabilities: []string{"fitness", "training"},
			Agent: NewLLMAgent(FitnessCoachName, "Exercise and training specialist.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(fitnessCoachInstructions)
				o.Tools = append(activity, workouts...)
				o.DefaultTarget = CriticName
			}),
		},
		{
			Name:         SleepDoctorName,
			Description:  "Assesses sleep quality, duration and recovery.",
			Capabilities: []string{"sleep", "recovery"},
			Agent: NewLLMAgent(SleepDoctorName, "Sleep quality and recovery specialist.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(sleepDoctorInstructions)
				o.Tools = sleep
				o.DefaultTarget = CriticName
			}),
		},
		{
			Name:         MindfulnessCoachName,
			Description:  "Advises on stress management and mental wellbeing.",
			Capabilities: []string{"mindfulness", "stress"},
			Agent: NewLLMAgent(MindfulnessCoachName, "Stress and mental wellbeing specialist.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(mindfulnessCoachInstructions)
				o.Tools = profile
				o.DefaultTarget = CriticName
			}),
		},
		{
			Name:         UserPersonaName,
			Description:  "Provides the user's profile, goals and preferences as context.",
			Capabilities: []string{"profile", "personalization"},
			Agent: NewLLMAgent(UserPersonaName, "User profile and preference context.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(userPersonaInstructions)
				o.Tools = profile
				o.DefaultTarget = TriageName
			}),
		},
		{
			Name:         CriticName,
			Description:  "Reviews the team's findings and writes the final user-facing answer.",
			Capabilities: []string{"synthesis", "review"},
			Agent: NewLLMAgent(CriticName, "Final reviewer and response writer.", llm, func(o *LLMAgentOptions) {
				o.Instruction = NewInstructionFromText(criticInstructions)
				o.PlainResponse = true
			}),
		},
	}
}

// pickTools selects tools by name from a freshly built tool list.
func pickTools(tools []tool.Tool, names ...string) []tool.Tool {
	var out []tool.Tool
	for _, name := range names {
		for _, t := range tools {
			if t.Name() == name {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
