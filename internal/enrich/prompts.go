package enrich

const (
	articlePrompt = "You summarize articles for a technical audience. Keep it concise and focused on facts, one short paragraph."

	selfPostPrompt = "You summarize Hacker News self-posts or thread content. Keep it concise and focused on the main subject, one short paragraph."

	commentsPrompt = "You summarize Hacker News comment threads. Output two parts:\n" +
		"1) 'Top upvoted themes:' 3-5 bullets, each line starting with '- ', reflecting the most upvoted or most visible comments/threads and their arguments (group similar ideas).\n" +
		"2) 'Overall discussion:' one concise paragraph capturing main themes and disagreements. Avoid quotes and usernames. Follow the order in which comments appear on the page."
)

const (
	stepArticle  = "fetch/summarize article"
	stepSelfPost = "summarize HN post/thread"
	stepComments = "fetch/summarize comments"
)
