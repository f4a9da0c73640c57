/*
Package build turns a PHP project into a static site.

🎯 Purpose:
- Locate the interpreter and validate the output folder before touching disk
- Walk the project tree and hand every entry to the classifier
- Render pages, rewrite their links, apply replacements and write .html files
- Copy static files byte for byte
- Count every outcome and print the summary

🔄 Flow:
1. setup: interpreter, output folder containment, classifier
2. prepare: remove the old output folder (warning on failure), create it (fatal on failure)
3. walk: lexical order, ignored directories are pruned, file work runs in an errgroup
4. report: counters, written files, output folder

⚡ Failures:
- Setup problems wrap ErrSetup; nothing is written and no statistics are returned
- Page problems are logged with their diagnostic and counted as errors
- Cancellation stops the walk and returns the partial report with the context error

🔍 Example:

	report, err := build.Run(ctx, build.Options{
		Root:    ".",
		Config:  config.Defaults(),
		Console: log.New(os.Stdout, zerolog.Disabled),
	})
*/
package build
