package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the Localspot MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolSearchBusinesses = mcp.NewTool("search_businesses",
	mcp.WithDescription(
		"Browse the Localspot directory of Richmond, VA businesses. "+
			"Returns matching businesses with their category, neighborhood, and contact info. "+
			"Use this to look up specific spots or explore a category."),
	mcp.WithString("category",
		mcp.Description("Filter by category (e.g. 'restaurant', 'coffee', 'retail')")),
	mcp.WithString("neighborhood",
		mcp.Description("Filter by neighborhood (e.g. 'Carytown', 'Church Hill', 'Scott's Addition')")),
	mcp.WithString("search",
		mcp.Description("Case-insensitive name search (e.g. 'taco')")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 20)")),
)

var ToolGetBusiness = mcp.NewTool("get_business",
	mcp.WithDescription(
		"Get the full listing for a single business: address, phone, website, "+
			"description, and tags. Use a business ID from search_businesses."),
	mcp.WithNumber("business_id",
		mcp.Required(),
		mcp.Description("The business's numeric ID")),
)

var ToolListReviews = mcp.NewTool("list_reviews",
	mcp.WithDescription(
		"Read customer reviews for a business, newest first. "+
			"Each review has a 1-5 star rating, a title, and the reviewer's display name."),
	mcp.WithNumber("business_id",
		mcp.Required(),
		mcp.Description("The business's numeric ID")),
)

var ToolActiveDeals = mcp.NewTool("active_deals",
	mcp.WithDescription(
		"List currently running deals and promotions across all Localspot businesses. "+
			"Shows the offer, the business running it, and when it expires."),
)

var ToolTopRated = mcp.NewTool("top_rated",
	mcp.WithDescription(
		"Get the highest-rated businesses by average review score. "+
			"Optionally narrow to one category or neighborhood."),
	mcp.WithString("category",
		mcp.Description("Only rank businesses in this category")),
	mcp.WithString("neighborhood",
		mcp.Description("Only rank businesses in this neighborhood")),
	mcp.WithNumber("min_reviews",
		mcp.Description("Require at least this many reviews before a business is ranked")),
)

var ToolFindSpots = mcp.NewTool("find_spots",
	mcp.WithDescription(
		"Ask Localspot's recommendation finder for personalized suggestions. "+
			"Takes a free-text request like 'cheap coffee in Carytown with wifi' and "+
			"returns scored matches with the reasons behind each score."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Free-text description of what you're looking for")),
)
