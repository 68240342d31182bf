package constants

const (
	ResourceNotFound    = `{"message":"We couldn't find this resource anywhere!"}`
	EndpointNotFound    = `{"message":"This endpoint doesn't exist. Check the path and try again."}`
	BadRequest          = `{"message":"The request was malformed."}`
	Forbidden           = `{"message":"You're not allowed to do this!"}`
	Unauthorized        = `{"message":"You need to be logged in to do this."}`
	InternalServerError = `{"message":"Something went wrong on our end!"}`
	MethodNotAllowed    = `{"message":"That method is not allowed for this endpoint!"}`
	BodyRequired        = `{"message":"A body is required for this endpoint!"}`
	TooManyRequests     = `{"message":"Slow down! Too many requests."}`
)
