package service

import "fmt"

// AI 调用相关的固定值。提示词模板来自产品侧定稿，修改需与前端展示联动确认
const (
	// 会话开场失败时的兜底问候：AI 不可用时会话也必须能开始
	fallbackGreeting = "Welcome to this learning module. How would you like to begin?"

	// 生成助教回复失败时的兜底话术，学生消息本身照常保留
	fallbackTutorReply = "I apologize, but I was unable to generate a response. Let's try again."

	// 没有任何助教消息可作评价上下文时的合成提问
	defaultEvaluationQuestion = "Please share your knowledge about this topic."

	// 达到该平均分即判定模块完成（0-5 分制）
	completionThreshold = 4.0

	sessionOpenSystemPrompt = "You are an AI tutor. Return only the overview and starter question in Markdown format."

	openMaxTokens     = 200
	turnMaxTokens     = 500
	evaluateMaxTokens = 2000
	mergeMaxTokens    = 2000
	authorMaxTokens   = 2000
	summaryMaxTokens  = 1000
	reportMaxTokens   = 4000

	openTemperature     = 0.7
	turnTemperature     = 0.7
	evaluateTemperature = 0.3
	mergeTemperature    = 0.2
	authorTemperature   = 0.7
)

func sessionOpenPrompt(description string) string {
	return fmt.Sprintf(`Create a brief overview (<=70 words) of this learning module: %s

Then add one starter question to begin the session. The question should assess the student's baseline understanding.

Format your response in Markdown with:
- Overview section with a brief description
- Question section with your starter question

Use **bold** for emphasis where appropriate.`, description)
}

func tutorTurnSystemPrompt(description, historyJSON, evaluation, knowledgeText string) string {
	return fmt.Sprintf(`You are an AI tutor guiding a student through a learning session.

Consider:
- Lesson plan: %s
- Chat history: %s
- Current evaluation: %s
- Available knowledge: %s

Given the teacher's lesson plan, which defines the learning and skills objectives, experiential goals and deliverables,
and the pedagogy expected of the AI tutor in guiding student through the learning experience: engage the student to
help them achieve the learning, skills, and experiential goals from the session. Your aim particularly is to help the
student build a deeper level of learning according to Bloom's taxonomy and to answer any question the student poses to
you. If the student asks a question, answering this is your priority. Otherwise, consider that the
current evaluation provides scores in each
of the Bloom's taxonomy category. A student must get an average score of 4 for all categories in order to successfully
complete a learning module. So, the your response to the student should help them improve their score one category at
time (but beginning with Remembering, then Understanding, then Applying, then Analyzing, then Evaluating, and then Creating.
Your response should also build upon the Chat history, and reference the Available knowledge provided by the teacher.

Guidelines:
1. Be concise (<=75 words)
2. Ask only ONE question at a time
3. Ensure understanding before moving on
4. Use Markdown formatting
5. Use **bold** for emphasis
6. Break responses into clear sections`, description, historyJSON, evaluation, knowledgeText)
}

func evaluationPrompt(description, tutorQuestion, studentResponse string) string {
	return fmt.Sprintf(`You are evaluating a student's response in a learning module.

## Learning Context
%s

## Recent Exchange
Tutor's question: "%s"

Student's response: "%s"

## Evaluation Instructions
Evaluate the student's understanding based on Bloom's Taxonomy. Assign a score from 0-5 for each category, where:
- 0 = No evidence
- 1 = Minimal evidence
- 2 = Basic evidence
- 3 = Satisfactory evidence
- 4 = Strong evidence
- 5 = Exemplary evidence

For each category, provide specific evidence from the student's response that justifies your score.

Categories to evaluate:
1. Remembering: Ability to recall facts, terms, or concepts
2. Understanding: Ability to explain ideas or concepts
3. Applying: Ability to use information in new situations
4. Analyzing: Ability to draw connections among ideas
5. Evaluating: Ability to justify a position or decision
6. Creating: Ability to produce new or original work

Format your evaluation exactly as follows:

## Evaluation Results
- **Remembering**: x/5
- **Understanding**: x/5
- **Applying**: x/5
- **Analyzing**: x/5
- **Evaluating**: x/5
- **Creating**: x/5

### Evidence
- **Remembering**: [specific evidence from student's response]
- **Understanding**: [specific evidence from student's response]
- **Applying**: [specific evidence from student's response]
- **Analyzing**: [specific evidence from student's response]
- **Evaluating**: [specific evidence from student's response]
- **Creating**: [specific evidence from student's response]

**Average Score:** [average of all scores, with one decimal place]

IMPORTANT: Be fair and generous in your evaluation. If the student demonstrates knowledge at any level, they should receive appropriate credit.`, description, tutorQuestion, studentResponse)
}

func mergeEvaluationsPrompt(current, latest string) string {
	return fmt.Sprintf(`I need to merge two evaluations of a student's work. For each category in Bloom's Taxonomy, I want to keep the HIGHER score and its corresponding evidence.

Current evaluation:
%s

Latest evaluation:
%s

Please merge these evaluations following these rules:
1. For each category (Remembering, Understanding, Applying, Analyzing, Evaluating, Creating):
   - Compare the scores from both evaluations
   - Keep the HIGHER score and its corresponding evidence
   - If scores are equal, keep the evidence from the latest evaluation as it's more recent

2. Calculate a new average based on the merged scores

3. Format the result exactly like this:

## Evaluation Results
- **Remembering**: x/5
- **Understanding**: x/5
- **Applying**: x/5
- **Analyzing**: x/5
- **Evaluating**: x/5
- **Creating**: x/5

### Evidence
- **Remembering**: evidence text
- **Understanding**: evidence text
- **Applying**: evidence text
- **Analyzing**: evidence text
- **Evaluating**: evidence text
- **Creating**: evidence text

**Average Score:** [calculated average with one decimal place]`, current, latest)
}

// 教师建模助手的系统提示词（模块创作对话）
const authoringSystemPrompt = `You are an expert AI education assistant collaborating with a teacher to develop an innovative, AI-integrated experiential learning module. Your role is to be both supportive and constructively critical, helping the teacher create the most effective learning experience possible.

For each step of the module development process:

1. Ask targeted questions (but only 1 at a time) about the teacher's plans
2. Offer specific suggestions and alternatives to consider
3. Provide examples and best practices
4. Help refine and strengthen their ideas
5. Point out potential challenges or areas that might need more development
6. Suggest ways to enhance student engagement and learning outcomes.

Key Areas to Address (Guide the discussion through these topics, but be flexible with the order based on the conversation flow):

1. Course Context & Student Profile
2. Learning Objectives
3. Knowledge Sources
4. AI Integration Strategy
5. Assessment Strategy
6. Experiential Learning Activities
7. Support & Scaffolding
8. Special Instructions for AI

Remember to:
- Be encouraging while also pushing for excellence
- Provide specific, actionable suggestions
- Offer to help develop detailed components (rubrics, activity guides, etc.)
- Maintain focus on student learning outcomes
- Consider practical implementation challenges
- Suggest ways to measure and ensure effectiveness

Your goal is to help the teacher create a learning module that is:
- Pedagogically sound
- Engaging for students
- Practically implementable
- Effectively leverages AI
- Measurably impactful

In communicating with the teacher, if you have a guiding question or comment, or are seeking clarification, ask only one at a time. Wait for a response before offering another. It's very important to not overwhelm the teacher with information.`

const authoringSummaryPrompt = "Create a comprehensive summary of the learning module discussion, organizing the key decisions and specifications into clear sections: Course Context, Learning Objectives, AI Integration, Assessment Strategy, Activities, and Support Mechanisms."

const authoringReportPrompt = `Generate a detailed learning module report with the following sections:
1. Module Overview
2. Learning Context & Student Profile
3. Learning Objectives (using Bloom's Taxonomy)
4. AI Integration Strategy
5. Learning Activities & Timeline
6. Assessment Strategy & Rubrics
7. Support & Scaffolding
8. Implementation Guidelines
9. Success Metrics
10. Required Resources`

// 自由对话（无会话状态）的系统提示词
const FreeChatSystemPrompt = "You are an AI tutor. Answer the student's questions clearly and concisely, using Markdown formatting where helpful."
