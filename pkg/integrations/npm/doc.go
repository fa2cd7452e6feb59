// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package checks package availability and lists published versions on
// the npm registry (https://registry.npmjs.org) or any compatible mirror.
// [Client] satisfies [resolve.Registry], so the resolver can validate
// technology versions against it directly.
//
// # Usage
//
//	client := npm.NewClient("", 10*time.Second)
//
//	versions, err := client.Versions(ctx, "react")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(slices.Contains(versions, "18.2.0"))
//
// # Failure semantics
//
// [Client.Versions] reports errors. [Client.Exists] and [Client.ListVersions]
// implement the best-effort registry contract: any failure (invalid name,
// 404, network error after retries) is reported as "unavailable" or as an
// empty version list.
//
// The client requests the abbreviated install metadata document, which is
// much smaller than the full packument.
//
// [resolve.Registry]: github.com/matzehuels/vulnpack/pkg/resolve.Registry
package npm
