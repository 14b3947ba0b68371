package wire

// MatchProcessingHTML is the body of the 500 response the query API gives
// when a matched target is mid-processing. The real service returns a
// different body each time; returning this one consistently is deliberate.
const MatchProcessingHTML = `<!DOCTYPE HTML PUBLIC "-//IETF//DTD HTML 2.0//EN">
<html>
<head>
<meta http-equiv="Content-Type" content="text/html;charset=ISO-8859-1"/>
<title>Error 500 Server Error</title>
</head>
<body><h2>HTTP ERROR 500</h2>
<p>Problem accessing /v1/query. Reason:
<pre>    Server Error</pre></p>
<hr><i><small>Powered by Jetty://</small></i><hr/>
</body>
</html>
`

// InternalErrorHTML is the body served for unexpected failures in any
// service, matching the opaque page the real stack produces.
const InternalErrorHTML = `<html><body><h1>500 Internal Server Error</h1>
An internal server error occurred. Retry your request.
</body></html>
`
