// Package httpapi serves optimisation sessions over HTTP.
//
// Two surfaces share one router:
//
//   - POST /optimize keeps the article-writing contract: the caller sends a
//     seed prompt, a reference article and the facts it must cover, and
//     receives {ret_code, best_prompt, msg}. ret_code is 0 on success and 1
//     on any failure, including validation.
//   - /v1/sessions runs and inspects generic sessions with conventional
//     status codes and an {"error": {code, message}} envelope.
package httpapi
